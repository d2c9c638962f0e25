package service

import (
	"errors"
	"sync"
	"time"

	"mafia-game-be/internal/service/game"

	"go.uber.org/zap"
)

// 结束后的游戏保留这么久供查询，之后由清理协程回收
const FINISHED_GAME_TTL = time.Hour

// GameService 管理所有进行中的游戏：每局游戏一个状态机协程，
// 服务本身只做注册表和请求转发，不碰游戏状态
type GameService struct {
	state *gameServiceState

	store        game.SnapshotStore
	nightTimeout time.Duration
}

type gameServiceState struct {
	mu sync.RWMutex

	// 均为从游戏 ID 到实体的映射
	machines       map[string]*game.GameMachine
	gameDoneChList map[string]chan struct{}

	cleanUpDone chan struct{}
}

func NewGameService(store game.SnapshotStore, nightTimeout time.Duration) *GameService {
	state := &gameServiceState{
		machines:       make(map[string]*game.GameMachine),
		gameDoneChList: make(map[string]chan struct{}),
		cleanUpDone:    make(chan struct{}),
	}

	gs := &GameService{
		state:        state,
		store:        store,
		nightTimeout: nightTimeout,
	}

	// 启动一个 goroutine 定期回收已结束的游戏
	go gs.startCleanupLoop()

	return gs
}

func (gs *GameService) startCleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-gs.state.cleanUpDone:
			return

		case <-ticker.C:
			gs.state.mu.Lock()

			for gameID, machine := range gs.state.machines {
				if !machine.IsFinished() {
					continue
				}
				if time.Since(machine.CreatedAt()) < FINISHED_GAME_TTL {
					continue
				}

				zap.S().Infof("游戏 %s 已结束且超过保留期，开始清理", gameID)

				// 通知对应的状态机协程退出
				close(gs.state.gameDoneChList[gameID])
				delete(gs.state.gameDoneChList, gameID)
				delete(gs.state.machines, gameID)

				if err := gs.store.Delete(gameID); err != nil {
					zap.S().Warnf("删除游戏 %s 的快照失败：%v", gameID, err)
				}
			}

			gs.state.mu.Unlock()
		}
	}
}

func (gs *GameService) Close() {
	close(gs.state.cleanUpDone)

	gs.state.mu.Lock()
	defer gs.state.mu.Unlock()

	for gameID, doneCh := range gs.state.gameDoneChList {
		close(doneCh)
		delete(gs.state.gameDoneChList, gameID)
		delete(gs.state.machines, gameID)
	}
}

// CreateGame 新建一局游戏并启动它的状态机协程
func (gs *GameService) CreateGame() string {
	gameID := game.ShortID()

	doneCh := make(chan struct{})
	machine := game.NewGameMachine(gameID, gs.nightTimeout, gs.store, doneCh)

	gs.state.mu.Lock()
	gs.state.machines[gameID] = machine
	gs.state.gameDoneChList[gameID] = doneCh
	gs.state.mu.Unlock()

	go machine.Start()

	zap.S().Infof("游戏 %s 已创建", gameID)

	return gameID
}

// JoinGame 把加入请求投递给对应的状态机，
// 返回该状态机的请求通道供连接层后续使用
func (gs *GameService) JoinGame(
	gameID string,
	req *game.JoinGameRequest,
) (chan game.RequestWrapper, error) {
	gs.state.mu.RLock()
	machine, ok := gs.state.machines[gameID]
	gs.state.mu.RUnlock()

	if !ok {
		return nil, errors.New("游戏不存在")
	}

	reqCh := machine.GetReqCh()

	wrapper := game.RequestWrapper{
		ReqType:    game.REQ_JOIN_GAME,
		NativeData: req,
	}

	reqTimer := time.NewTimer(5 * time.Second)
	defer reqTimer.Stop()

	select {
	case reqCh <- wrapper:
		return reqCh, nil

	case <-reqTimer.C:
		zap.S().Warnf("游戏 %s 无法及时处理加入请求，%s 发送失败", gameID, req.JoinerName)
		return nil, errors.New("加入游戏失败")
	}
}

// ResetGame 向指定游戏投递重置请求
func (gs *GameService) ResetGame(gameID string) error {
	gs.state.mu.RLock()
	machine, ok := gs.state.machines[gameID]
	gs.state.mu.RUnlock()

	if !ok {
		return errors.New("游戏不存在")
	}

	wrapper := game.RequestWrapper{
		ReqType:    game.REQ_RESET,
		NativeData: &game.ResetRequest{},
	}

	select {
	case machine.GetReqCh() <- wrapper:
		return nil
	default:
		return errors.New("游戏繁忙，请稍后再试")
	}
}

// Snapshot 读取指定游戏最近一次持久化的快照
func (gs *GameService) Snapshot(gameID string) (*game.Snapshot, error) {
	return gs.store.Load(gameID)
}
