package game

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// 游戏总体分为 5 个阶段，分别是：
// 1. 大厅阶段（Lobby）：玩家加入，凑满七人后可以开始游戏
// 2. 分配阶段（RoleAssignment）：洗牌并发放七个固定角色，随即自动入夜
// 3. 夜晚阶段（Night）：收集夜间行动，超时或收到结算指令后结算死亡
// 4. 白天阶段（Day）：收集投票，结算指令到达后淘汰得票最多者
// 5. 结束阶段（GameOver）：宣布胜利方，除重置外不再接受任何请求
const (
	STAGE_LOBBY           = "Lobby"
	STAGE_ROLE_ASSIGNMENT = "RoleAssignment"
	STAGE_NIGHT           = "Night"
	STAGE_DAY             = "Day"
	STAGE_GAME_OVER       = "GameOver"
)

// 夜晚阶段的默认自动结算超时
const DEFAULT_NIGHT_TIMEOUT = 10 * time.Second

type StageHandler interface {
	Stage() string

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, req RequestWrapper) error
	OnExit(ctx *GameContext)

	SetOnSwitch(func(nextStage string))
}

// resetContext 把上下文恢复为空大厅（保留 GameID 与超时配置）
func resetContext(ctx *GameContext) {
	ctx.Players = make([]*Player, 0, PLAYER_COUNT)
	ctx.NightActions = NightActionSet{}
	ctx.Votes = make(map[string]string)
	ctx.LastDeaths = nil
	ctx.LastEliminated = ""
	ctx.Winner = ""
}

// handleReset 丢弃当前局：广播重置通知并关闭所有连接通道，
// 调用方随后负责切回大厅阶段（或原地清空上下文）
func handleReset(ctx *GameContext) {
	ctx.ClearTimeout()

	ctx.BroadcastResp(WrapResponse(RESP_RESET, nil))

	for _, p := range ctx.Players {
		if p.RespCh != nil {
			close(p.RespCh)
			p.RespCh = nil
		}
	}

	zap.L().Info(
		"游戏已重置",
		zap.String("game_id", ctx.GameID),
	)
}

// notifyJoinRejected 把拒绝原因直接送回请求者的响应通道。
// 被拒玩家不在名单里，不能走 UnicastResp
func notifyJoinRejected(req *JoinGameRequest, reason string) {
	if req.RespCh == nil {
		return
	}

	select {
	case req.RespCh <- WrapErrResponse(reason):
	default:
		zap.L().Warn(
			"发送加入拒绝响应失败：通道已满",
			zap.String("player_name", req.JoinerName),
		)
	}
}

// handleMidGameJoin 处理大厅之外收到的加入请求：
// 名单内玩家视为断线重连，换上新通道；陌生玩家一律拒绝
func handleMidGameJoin(ctx *GameContext, req *JoinGameRequest) error {
	existing := ctx.FindPlayer(req.PlayerID)
	if existing == nil {
		err := errors.New("游戏已开始，无法加入")
		notifyJoinRejected(req, err.Error())
		return err
	}

	if existing.RespCh != nil {
		close(existing.RespCh)
	}
	existing.RespCh = req.RespCh

	ctx.UnicastResp(existing.ID, WrapResponse(
		RESP_JOIN_GAME,
		JoinGameResponse{
			GameID: ctx.GameID,
			Stage:  ctx.GameStage,
			Joiner: *existing,
		},
	))

	zap.L().Info(
		"玩家断线重连",
		zap.String("game_id", ctx.GameID),
		zap.String("player_id", existing.ID),
	)

	return nil
}

// detachPlayer 处理游戏进行中的连接断开：名单保持不变，
// 只关闭并摘除该玩家的响应通道
func detachPlayer(ctx *GameContext, playerID string, reqRespCh chan ResponseWrapper) {
	player := ctx.FindPlayer(playerID)
	if player == nil {
		zap.L().Warn(
			"玩家不存在，无法断开",
			zap.String("player_id", playerID),
		)
		return
	}

	// 通道不匹配说明该连接早已被替换，忽略
	if player.RespCh != reqRespCh {
		return
	}

	close(player.RespCh)
	player.RespCh = nil

	zap.L().Info(
		"玩家连接已断开（名单保留）",
		zap.String("game_id", ctx.GameID),
		zap.String("player_id", playerID),
	)
}

// 大厅阶段是整个游戏最初始的阶段
type lobbyStageHandler struct {
	onSwitch func(string)
}

func NewLobbyStageHandler() *lobbyStageHandler {
	return &lobbyStageHandler{}
}

func (lsh *lobbyStageHandler) Stage() string {
	return STAGE_LOBBY
}

func (lsh *lobbyStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_LOBBY
	resetContext(ctx)
}

func (lsh *lobbyStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if req := TryUnwrapJoinGameRequest(req); req != nil {
		// 同 ID 重复加入视为换连接：替换响应通道，不新增名单项
		if existing := ctx.FindPlayer(req.PlayerID); existing != nil {
			if existing.RespCh != nil {
				close(existing.RespCh)
			}
			existing.RespCh = req.RespCh

			ctx.UnicastResp(existing.ID, WrapResponse(
				RESP_JOIN_GAME,
				JoinGameResponse{
					GameID: ctx.GameID,
					Stage:  ctx.GameStage,
					Joiner: *existing,
				},
			))

			return nil
		}

		if len(ctx.Players) >= PLAYER_COUNT {
			err := errors.New("无法加入游戏：房间已满")
			notifyJoinRejected(req, err.Error())
			return err
		}

		playerID := req.PlayerID
		if playerID == "" {
			playerID = ShortID()
		}

		player := &Player{
			ID:     playerID,
			Name:   req.JoinerName,
			Role:   ROLE_UNSET,
			Alive:  true,
			RespCh: req.RespCh,
		}

		ctx.Players = append(ctx.Players, player)

		// 先给加入者确认身份，再向所有人广播最新名单
		ctx.UnicastResp(playerID, WrapResponse(
			RESP_JOIN_GAME,
			JoinGameResponse{
				GameID: ctx.GameID,
				Stage:  ctx.GameStage,
				Joiner: *player,
			},
		))

		ctx.BroadcastResp(WrapResponse(
			RESP_LOBBY_UPDATE,
			LobbyUpdateResponse{Players: ctx.PlayersSnapshot()},
		))

		return nil
	}

	if req := TryUnwrapStartGameRequest(req); req != nil {
		if len(ctx.Players) != PLAYER_COUNT {
			ctx.UnicastResp(req.StartPlayerID, WrapErrResponse(ErrInsufficientPlayers.Error()))
			return ErrInsufficientPlayers
		}

		lsh.onSwitch(STAGE_ROLE_ASSIGNMENT)

		return nil
	}

	if req := TryUnwrapStartWithAIRequest(req); req != nil {
		if len(ctx.Players) < 1 {
			return errors.New("无法开始游戏：至少需要一名真人玩家")
		}

		fillWithAI(ctx)

		// 补位后广播一次名单，让客户端看到 AI 玩家
		ctx.BroadcastResp(WrapResponse(
			RESP_LOBBY_UPDATE,
			LobbyUpdateResponse{Players: ctx.PlayersSnapshot()},
		))

		lsh.onSwitch(STAGE_ROLE_ASSIGNMENT)

		return nil
	}

	if req := TryUnwrapExitGameRequest(req); req != nil {
		// 开局前离开会从名单中移除
		for i, p := range ctx.Players {
			if p.ID != req.PlayerID {
				continue
			}

			if p.RespCh != nil {
				ctx.UnicastResp(p.ID, WrapResponse(
					RESP_EXIT_GAME,
					ExitGameResponse{
						LeftPlayerID:   p.ID,
						LeftPlayerName: p.Name,
					},
				))

				close(p.RespCh)
				p.RespCh = nil
			}

			ctx.Players = append(ctx.Players[:i], ctx.Players[i+1:]...)

			ctx.BroadcastResp(WrapResponse(
				RESP_LOBBY_UPDATE,
				LobbyUpdateResponse{Players: ctx.PlayersSnapshot()},
			))

			return nil
		}

		zap.L().Warn(
			"玩家不存在，无法退出",
			zap.String("player_id", req.PlayerID),
		)

		return nil
	}

	if req := TryUnwrapResetRequest(req); req != nil {
		// 大厅内重置：原地清空名单
		handleReset(ctx)
		resetContext(ctx)
		return nil
	}

	return errors.New("无法处理请求：当前阶段不支持该请求类型")
}

func (lsh *lobbyStageHandler) OnExit(ctx *GameContext) {
}

func (lsh *lobbyStageHandler) SetOnSwitch(onSwitch func(string)) {
	lsh.onSwitch = onSwitch
}

// 分配阶段：洗牌发放角色后立即自动入夜，不停留
type roleAssignStageHandler struct {
	onSwitch func(string)
}

func NewRoleAssignStageHandler() *roleAssignStageHandler {
	return &roleAssignStageHandler{}
}

func (rsh *roleAssignStageHandler) Stage() string {
	return STAGE_ROLE_ASSIGNMENT
}

func (rsh *roleAssignStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_ROLE_ASSIGNMENT

	if err := assignRoles(ctx.Players); err != nil {
		// 大厅阶段已校验人数，这里不应该发生
		zap.L().Error(
			"分配角色失败",
			zap.String("game_id", ctx.GameID),
			zap.Error(err),
		)

		ctx.BroadcastResp(WrapErrResponse(err.Error()))
		rsh.onSwitch(STAGE_LOBBY)

		return
	}

	// 角色单独私发给每个真人玩家
	for _, p := range ctx.Players {
		if p.IsAI {
			continue
		}

		ctx.UnicastResp(p.ID, WrapResponse(
			RESP_ROLE_ASSIGNED,
			RoleAssignedResponse{
				Role: p.Role,
				Name: p.Name,
			},
		))
	}

	zap.L().Info(
		"角色分配完成",
		zap.String("game_id", ctx.GameID),
	)

	rsh.onSwitch(STAGE_NIGHT)
}

func (rsh *roleAssignStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if req := TryUnwrapResetRequest(req); req != nil {
		handleReset(ctx)
		rsh.onSwitch(STAGE_LOBBY)
		return nil
	}

	return errors.New("分配阶段不接受玩家请求")
}

func (rsh *roleAssignStageHandler) OnExit(ctx *GameContext) {
}

func (rsh *roleAssignStageHandler) SetOnSwitch(onSwitch func(string)) {
	rsh.onSwitch = onSwitch
}

// 夜晚阶段处理器
type nightStageHandler struct {
	onSwitch func(string)
}

func NewNightStageHandler() *nightStageHandler {
	return &nightStageHandler{}
}

func (nsh *nightStageHandler) Stage() string {
	return STAGE_NIGHT
}

func (nsh *nightStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_NIGHT

	// 每个夜晚开始时整体重置行动槽位
	ctx.NightActions = NightActionSet{}
	ctx.LastDeaths = nil

	ctx.BroadcastResp(WrapResponse(
		RESP_PHASE_CHANGE,
		PhaseChangeResponse{
			Phase:   STAGE_NIGHT,
			Message: "天黑请闭眼",
		},
	))

	timeout := ctx.NightTimeout
	if timeout <= 0 {
		timeout = DEFAULT_NIGHT_TIMEOUT
	}

	ctx.SetTimeout(timeout)
}

func (nsh *nightStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if req := TryUnwrapTimeoutRequest(req); req != nil {
		// 阶段和代数都匹配才算有效超时，迟到的定时器直接丢弃
		if req.Stage != STAGE_NIGHT || req.Generation != ctx.TmoGeneration {
			zap.L().Debug(
				"忽略过期的超时事件",
				zap.String("game_id", ctx.GameID),
				zap.String("stage", req.Stage),
				zap.Int("generation", req.Generation),
			)
			return nil
		}

		nsh.endNight(ctx)

		return nil
	}

	if req := TryUnwrapNightActionRequest(req); req != nil {
		// 目标指向名单外的玩家时静默忽略，容忍客户端的过期状态
		if req.TargetID != "" && ctx.FindPlayer(req.TargetID) == nil {
			zap.L().Debug(
				"忽略目标不存在的夜间行动",
				zap.String("game_id", ctx.GameID),
				zap.String("kind", req.Kind),
				zap.String("target_id", req.TargetID),
			)
			return nil
		}

		switch req.Kind {
		case ACTION_WITCH_INSPECT:
			ctx.NightActions.WitchInspection = req.TargetID
		case ACTION_DETECTIVE_INSPECT:
			ctx.NightActions.DetectiveInspection = req.TargetID
		case ACTION_DUANT_LINK:
			ctx.NightActions.DuantTarget = req.TargetID
		case ACTION_KILL:
			ctx.NightActions.KillTarget = req.TargetID
		default:
			return errors.New("无法处理夜间行动：未知的行动类型")
		}

		// 只向行动者确认收到，不向任何人透露内容
		ctx.UnicastResp(req.ActorID, WrapResponse(
			RESP_NIGHT_ACTION,
			NightActionResponse{Kind: req.Kind},
		))

		return nil
	}

	if req := TryUnwrapEndNightRequest(req); req != nil {
		nsh.endNight(ctx)
		return nil
	}

	if req := TryUnwrapJoinGameRequest(req); req != nil {
		return handleMidGameJoin(ctx, req)
	}

	if req := TryUnwrapExitGameRequest(req); req != nil {
		detachPlayer(ctx, req.PlayerID, req.RespCh)
		return nil
	}

	if req := TryUnwrapResetRequest(req); req != nil {
		handleReset(ctx)
		nsh.onSwitch(STAGE_LOBBY)
		return nil
	}

	return errors.New("夜晚阶段只接受 NightAction 和 EndNight 请求")
}

// endNight 结算夜晚：先跑死亡规则，再做阵营胜负判定
func (nsh *nightStageHandler) endNight(ctx *GameContext) {
	deaths := resolveNight(&ctx.NightActions, ctx.Players)
	ctx.LastDeaths = deaths

	if len(deaths) > 0 {
		ctx.BroadcastResp(WrapResponse(
			RESP_NIGHT_RESULTS,
			NightResultsResponse{Deaths: deaths},
		))
	}

	if winner := evaluateWin(ctx.Players); winner != "" {
		ctx.Winner = winner
		nsh.onSwitch(STAGE_GAME_OVER)
		return
	}

	nsh.onSwitch(STAGE_DAY)
}

func (nsh *nightStageHandler) OnExit(ctx *GameContext) {
	ctx.ClearTimeout()
}

func (nsh *nightStageHandler) SetOnSwitch(onSwitch func(string)) {
	nsh.onSwitch = onSwitch
}

// 白天阶段处理器
type dayStageHandler struct {
	onSwitch func(string)
}

func NewDayStageHandler() *dayStageHandler {
	return &dayStageHandler{}
}

func (dsh *dayStageHandler) Stage() string {
	return STAGE_DAY
}

func (dsh *dayStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_DAY

	ctx.Votes = make(map[string]string)
	ctx.LastEliminated = ""

	ctx.BroadcastResp(WrapResponse(
		RESP_PHASE_CHANGE,
		PhaseChangeResponse{
			Phase:   STAGE_DAY,
			Message: "天亮了，请投票",
		},
	))
}

func (dsh *dayStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if req := TryUnwrapTimeoutRequest(req); req != nil {
		// 白天没有定时器，能到这里的只可能是夜晚的迟到超时
		zap.L().Debug(
			"忽略过期的超时事件",
			zap.String("game_id", ctx.GameID),
			zap.String("stage", req.Stage),
		)
		return nil
	}

	if req := TryUnwrapVoteRequest(req); req != nil {
		voter := ctx.FindPlayer(req.VoterID)
		if voter == nil {
			return errors.New("投票者不存在")
		}

		if !voter.Alive {
			ctx.UnicastResp(req.VoterID, WrapErrResponse("死亡玩家不能投票"))
			return errors.New("死亡玩家不能投票")
		}

		// 目标指向名单外的玩家时静默忽略
		if ctx.FindPlayer(req.TargetID) == nil {
			zap.L().Debug(
				"忽略目标不存在的投票",
				zap.String("game_id", ctx.GameID),
				zap.String("voter_id", req.VoterID),
				zap.String("target_id", req.TargetID),
			)
			return nil
		}

		// 重复投票以最后一次为准
		ctx.Votes[req.VoterID] = req.TargetID

		ctx.UnicastResp(req.VoterID, WrapResponse(
			RESP_VOTE,
			VoteResponse{
				VoterID:  req.VoterID,
				TargetID: req.TargetID,
			},
		))

		return nil
	}

	if req := TryUnwrapEndDayRequest(req); req != nil {
		dsh.endDay(ctx)
		return nil
	}

	if req := TryUnwrapJoinGameRequest(req); req != nil {
		return handleMidGameJoin(ctx, req)
	}

	if req := TryUnwrapExitGameRequest(req); req != nil {
		detachPlayer(ctx, req.PlayerID, req.RespCh)
		return nil
	}

	if req := TryUnwrapResetRequest(req); req != nil {
		handleReset(ctx)
		dsh.onSwitch(STAGE_LOBBY)
		return nil
	}

	return errors.New("白天阶段只接受 Vote 和 EndDay 请求")
}

// endDay 结算白天：计票淘汰，小丑被投出则立即获胜，
// 否则再做常规阵营胜负判定
func (dsh *dayStageHandler) endDay(ctx *GameContext) {
	eliminatedID := resolveDay(ctx.Votes, ctx.Players)
	ctx.LastEliminated = eliminatedID

	if eliminatedID != "" {
		eliminated := ctx.FindPlayer(eliminatedID)

		ctx.BroadcastResp(WrapResponse(
			RESP_ELIMINATE,
			EliminateResponse{
				EliminatedID:   eliminated.ID,
				EliminatedName: eliminated.Name,
			},
		))

		// 小丑的即时胜利优先于常规判定
		if eliminated.Role == ROLE_JOKER {
			ctx.Winner = WINNER_JOKER
			dsh.onSwitch(STAGE_GAME_OVER)
			return
		}
	}

	if winner := evaluateWin(ctx.Players); winner != "" {
		ctx.Winner = winner
		dsh.onSwitch(STAGE_GAME_OVER)
		return
	}

	dsh.onSwitch(STAGE_NIGHT)
}

func (dsh *dayStageHandler) OnExit(ctx *GameContext) {
}

func (dsh *dayStageHandler) SetOnSwitch(onSwitch func(string)) {
	dsh.onSwitch = onSwitch
}

// 结束阶段处理器
type gameOverStageHandler struct {
	onSwitch func(string)
}

func NewGameOverStageHandler() *gameOverStageHandler {
	return &gameOverStageHandler{}
}

func (gsh *gameOverStageHandler) Stage() string {
	return STAGE_GAME_OVER
}

func (gsh *gameOverStageHandler) OnEnter(ctx *GameContext) {
	ctx.GameStage = STAGE_GAME_OVER

	ctx.ClearTimeout()

	ctx.BroadcastResp(WrapResponse(
		RESP_GAME_OVER,
		GameOverResponse{Winner: ctx.Winner},
	))

	zap.L().Info(
		"游戏结束",
		zap.String("game_id", ctx.GameID),
		zap.String("winner", ctx.Winner),
	)
}

func (gsh *gameOverStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if req := TryUnwrapResetRequest(req); req != nil {
		handleReset(ctx)
		gsh.onSwitch(STAGE_LOBBY)
		return nil
	}

	if req := TryUnwrapJoinGameRequest(req); req != nil {
		// 重连的玩家还能回来看结果，新玩家只能等重置
		return handleMidGameJoin(ctx, req)
	}

	if req := TryUnwrapExitGameRequest(req); req != nil {
		detachPlayer(ctx, req.PlayerID, req.RespCh)
		return nil
	}

	return errors.New("游戏已结束")
}

func (gsh *gameOverStageHandler) OnExit(ctx *GameContext) {
}

func (gsh *gameOverStageHandler) SetOnSwitch(onSwitch func(string)) {
	gsh.onSwitch = onSwitch
}
