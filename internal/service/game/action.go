package game

// 夜间行动类型，对应 NightActionSet 的四个槽位
const (
	ACTION_WITCH_INSPECT     = "witch_inspect"
	ACTION_DETECTIVE_INSPECT = "detective_inspect"
	ACTION_DUANT_LINK        = "duant_link"
	ACTION_KILL              = "kill"
)

type JoinGameRequest struct {
	PlayerID   string               `json:"player_id"`
	JoinerName string               `json:"joiner_name"`
	RespCh     chan ResponseWrapper `json:"-"`
}

type JoinGameResponse struct {
	GameID string `json:"game_id"`
	Stage  string `json:"stage"`
	Joiner Player `json:"joiner"`
}

type StartGameRequest struct {
	StartPlayerID string `json:"start_player_id"`
}

type StartWithAIRequest struct {
	StartPlayerID string `json:"start_player_id"`
}

type NightActionRequest struct {
	Kind     string `json:"kind"`
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`
}

type NightActionResponse struct {
	Kind string `json:"kind"`
}

type VoteRequest struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id"`
}

type VoteResponse struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id"`
}

type EndNightRequest struct{}

type EndDayRequest struct{}

type ResetRequest struct{}

type ExitGameRequest struct {
	PlayerID string               `json:"player_id"`
	RespCh   chan ResponseWrapper `json:"-"`
}

type ExitGameResponse struct {
	LeftPlayerID   string `json:"left_player_id"`
	LeftPlayerName string `json:"left_player_name"`
}

type TimeoutRequest struct {
	Stage string `json:"stage"`
	// 超时代数，防止上一个夜晚的迟到定时器推动下一个夜晚
	Generation int `json:"generation"`
}

type LobbyUpdateResponse struct {
	Players []Player `json:"players"`
}

type RoleAssignedResponse struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

type PhaseChangeResponse struct {
	Phase   string `json:"phase"`
	Message string `json:"message,omitempty"`
}

type NightResultsResponse struct {
	Deaths []string `json:"deaths"`
}

type EliminateResponse struct {
	EliminatedID   string `json:"eliminated_id"`
	EliminatedName string `json:"eliminated_name"`
}

type GameOverResponse struct {
	Winner string `json:"winner"`
}
