package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_JOIN_GAME     = "JoinGame"
	REQ_START_GAME    = "StartGame"
	REQ_START_WITH_AI = "StartGameWithAI"
	REQ_NIGHT_ACTION  = "NightAction"
	REQ_VOTE          = "Vote"
	REQ_END_NIGHT     = "EndNight"
	REQ_END_DAY       = "EndDay"
	REQ_RESET         = "Reset"
	REQ_EXIT_GAME     = "ExitGame"
	REQ_TIMEOUT       = "Timeout"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`

	// 服务端内部构造的请求（携带通道等不可序列化字段）走这里
	NativeData any `json:"-"`
}

func TryUnwrapJoinGameRequest(wrapper RequestWrapper) *JoinGameRequest {
	if wrapper.ReqType != REQ_JOIN_GAME {
		return nil
	}

	if req, ok := wrapper.NativeData.(*JoinGameRequest); ok {
		return req
	}

	var joinGameRequest JoinGameRequest

	err := json.Unmarshal(wrapper.Data, &joinGameRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap JoinGameRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &joinGameRequest
}

func TryUnwrapStartGameRequest(wrapper RequestWrapper) *StartGameRequest {
	if wrapper.ReqType != REQ_START_GAME {
		return nil
	}

	var startGameRequest StartGameRequest

	err := json.Unmarshal(wrapper.Data, &startGameRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap StartGameRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &startGameRequest
}

func TryUnwrapStartWithAIRequest(wrapper RequestWrapper) *StartWithAIRequest {
	if wrapper.ReqType != REQ_START_WITH_AI {
		return nil
	}

	var startWithAIRequest StartWithAIRequest

	err := json.Unmarshal(wrapper.Data, &startWithAIRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap StartWithAIRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &startWithAIRequest
}

func TryUnwrapNightActionRequest(wrapper RequestWrapper) *NightActionRequest {
	if wrapper.ReqType != REQ_NIGHT_ACTION {
		return nil
	}

	var nightActionRequest NightActionRequest

	err := json.Unmarshal(wrapper.Data, &nightActionRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap NightActionRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &nightActionRequest
}

func TryUnwrapVoteRequest(wrapper RequestWrapper) *VoteRequest {
	if wrapper.ReqType != REQ_VOTE {
		return nil
	}

	var voteRequest VoteRequest

	err := json.Unmarshal(wrapper.Data, &voteRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap VoteRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &voteRequest
}

func TryUnwrapEndNightRequest(wrapper RequestWrapper) *EndNightRequest {
	if wrapper.ReqType != REQ_END_NIGHT {
		return nil
	}

	return &EndNightRequest{}
}

func TryUnwrapEndDayRequest(wrapper RequestWrapper) *EndDayRequest {
	if wrapper.ReqType != REQ_END_DAY {
		return nil
	}

	return &EndDayRequest{}
}

func TryUnwrapResetRequest(wrapper RequestWrapper) *ResetRequest {
	if wrapper.ReqType != REQ_RESET {
		return nil
	}

	return &ResetRequest{}
}

func TryUnwrapExitGameRequest(wrapper RequestWrapper) *ExitGameRequest {
	if wrapper.ReqType != REQ_EXIT_GAME {
		return nil
	}

	if req, ok := wrapper.NativeData.(*ExitGameRequest); ok {
		return req
	}

	var exitGameRequest ExitGameRequest

	err := json.Unmarshal(wrapper.Data, &exitGameRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap ExitGameRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &exitGameRequest
}

func TryUnwrapTimeoutRequest(wrapper RequestWrapper) *TimeoutRequest {
	if wrapper.ReqType != REQ_TIMEOUT {
		return nil
	}

	if req, ok := wrapper.NativeData.(*TimeoutRequest); ok {
		return req
	}

	var timeoutRequest TimeoutRequest

	err := json.Unmarshal(wrapper.Data, &timeoutRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap TimeoutRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &timeoutRequest
}

// 响应类型
const (
	RESP_ERROR = "Error"

	RESP_JOIN_GAME     = "JoinGame"
	RESP_LOBBY_UPDATE  = "LobbyUpdate"
	RESP_ROLE_ASSIGNED = "RoleAssigned"
	RESP_PHASE_CHANGE  = "PhaseChange"
	RESP_NIGHT_ACTION  = "NightAction"
	RESP_VOTE          = "Vote"
	RESP_NIGHT_RESULTS = "NightResults"
	RESP_ELIMINATE     = "Eliminate"
	RESP_GAME_OVER     = "GameOver"
	RESP_RESET         = "Reset"
	RESP_EXIT_GAME     = "ExitGame"
)

type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Data     any    `json:"data,omitempty"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}
