package game

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Snapshot 是一局游戏的完整可序列化记录，每次事件处理后
// 整体覆盖写入存储，不做增量更新
type Snapshot struct {
	GameID         string         `json:"game_id"`
	Stage          string         `json:"stage"`
	Players        []Player       `json:"players"`
	NightActions   NightActionSet `json:"night_actions"`
	LastDeaths     []string       `json:"last_deaths,omitempty"`
	LastEliminated string         `json:"last_eliminated,omitempty"`
	Winner         string         `json:"winner,omitempty"`
}

// SnapshotStore 由外部的存储适配器实现
type SnapshotStore interface {
	Save(gameID string, snap Snapshot) error
	Load(gameID string) (*Snapshot, error)
	Delete(gameID string) error
}

func buildSnapshot(ctx *GameContext) Snapshot {
	return Snapshot{
		GameID:         ctx.GameID,
		Stage:          ctx.GameStage,
		Players:        ctx.PlayersSnapshot(),
		NightActions:   ctx.NightActions,
		LastDeaths:     ctx.LastDeaths,
		LastEliminated: ctx.LastEliminated,
		Winner:         ctx.Winner,
	}
}

// GameMachine 是游戏状态机，负责管理游戏状态和事件循环。
// 每局游戏由唯一一个状态机协程持有，所有事件在这里串行化
type GameMachine struct {
	ctx     *GameContext
	handler StageHandler
	store   SnapshotStore
	// 这是所有的用户的请求汇总的通道
	reqCh chan RequestWrapper
	// 结束通道，用于通知游戏状态机退出事件循环
	doneCh chan struct{}

	// 终局标志。GameContext 只归事件循环协程读写，
	// 清理协程要看的结束状态通过这个原子量发布
	finished atomic.Bool

	createdAt time.Time
}

func NewGameMachine(
	gameID string,
	nightTimeout time.Duration,
	store SnapshotStore,
	doneCh chan struct{},
) *GameMachine {
	ctx := &GameContext{
		GameID:       gameID,
		NightTimeout: nightTimeout,
		TmoCh:        make(chan RequestWrapper, 64),
	}

	reqCh := make(chan RequestWrapper, 64)

	gm := &GameMachine{
		ctx:       ctx,
		handler:   NewLobbyStageHandler(),
		store:     store,
		reqCh:     reqCh,
		doneCh:    doneCh,
		createdAt: time.Now(),
	}

	// 设置 onSwitch 回调
	onSwitch := func(nextStage string) {
		gm.ctx.GameStage = nextStage
	}

	gm.handler.SetOnSwitch(onSwitch)

	return gm
}

func (gm *GameMachine) GetReqCh() chan RequestWrapper {
	return gm.reqCh
}

func (gm *GameMachine) Start() {
	// 执行初始 handler 的 OnEnter
	gm.handler.OnEnter(gm.ctx)
	gm.saveSnapshot()

	// 进入事件循环
	for {
		// 从请求通道或超时通道接收事件
		var req RequestWrapper

		select {
		case req = <-gm.reqCh:
			zap.L().Debug(
				"接收到客户端请求",
				zap.String("game_id", gm.ctx.GameID),
				zap.Any("request", req),
			)
		case req = <-gm.ctx.TmoCh:
			zap.L().Debug(
				"接收到超时事件",
				zap.String("game_id", gm.ctx.GameID),
			)
		case <-gm.doneCh:
			zap.L().Info(
				"收到退出信号，结束游戏状态机",
				zap.String("game_id", gm.ctx.GameID),
			)
			return
		}

		// 处理请求
		err := gm.handler.OnHandle(gm.ctx, req)
		if err != nil {
			zap.L().Debug(
				"处理请求失败",
				zap.Error(err),
				zap.String("stage", gm.handler.Stage()),
				zap.Any("request", req),
			)
		}

		// 跟进状态变化；分配阶段会在 OnEnter 中继续切换，
		// 所以这里循环直到状态稳定
		for gm.ctx.GameStage != gm.handler.Stage() {
			gm.switchStage()
			gm.handler.OnEnter(gm.ctx)
		}

		// 先发布终局标志再持久化，快照可见时标志一定已就绪
		gm.finished.Store(gm.ctx.GameStage == STAGE_GAME_OVER)

		// 每处理完一个事件就整体覆盖持久化一次
		gm.saveSnapshot()
	}
}

func (gm *GameMachine) switchStage() {
	// 执行当前 handler 的 OnExit
	gm.handler.OnExit(gm.ctx)

	// 根据新状态创建对应的 handler
	var newHandler StageHandler

	switch gm.ctx.GameStage {
	case STAGE_LOBBY:
		newHandler = NewLobbyStageHandler()
	case STAGE_ROLE_ASSIGNMENT:
		newHandler = NewRoleAssignStageHandler()
	case STAGE_NIGHT:
		newHandler = NewNightStageHandler()
	case STAGE_DAY:
		newHandler = NewDayStageHandler()
	case STAGE_GAME_OVER:
		newHandler = NewGameOverStageHandler()
	default:
		zap.L().Error(
			"未知的游戏阶段",
			zap.String("stage", gm.ctx.GameStage),
		)
		return
	}

	// 设置 onSwitch 回调
	onSwitch := func(nextStage string) {
		gm.ctx.GameStage = nextStage
	}

	newHandler.SetOnSwitch(onSwitch)

	// 更新当前 handler
	gm.handler = newHandler
}

func (gm *GameMachine) saveSnapshot() {
	if gm.store == nil {
		return
	}

	if err := gm.store.Save(gm.ctx.GameID, buildSnapshot(gm.ctx)); err != nil {
		zap.L().Warn(
			"保存游戏快照失败",
			zap.String("game_id", gm.ctx.GameID),
			zap.Error(err),
		)
	}
}

// IsFinished 报告游戏是否已进入结束阶段，
// 可以在事件循环之外的协程安全调用
func (gm *GameMachine) IsFinished() bool {
	return gm.finished.Load()
}

func (gm *GameMachine) CreatedAt() time.Time {
	return gm.createdAt
}
