package game

import (
	"time"

	"go.uber.org/zap"
)

// GameContext 是一局游戏的聚合根，只允许由所属的
// GameMachine 事件循环协程读写
type GameContext struct {
	GameID    string
	GameStage string

	// 有序的玩家名单，顺序即白天平票时的裁决顺序
	Players []*Player

	NightActions NightActionSet
	// 白天收集的投票，key 为投票者 ID，value 为目标 ID
	Votes map[string]string

	// 最近一次夜晚的死亡名单、白天的淘汰者与最终胜利方
	LastDeaths     []string
	LastEliminated string
	Winner         string

	// 夜晚阶段的自动结算超时时长
	NightTimeout time.Duration

	// 超时事件回注通道与当前超时代数
	TmoCh         chan RequestWrapper
	Timer         *time.Timer
	TmoGeneration int
}

func (gc *GameContext) FindPlayer(playerID string) *Player {
	for _, p := range gc.Players {
		if p.ID == playerID {
			return p
		}
	}

	return nil
}

func (gc *GameContext) GetAlivePlayers() []*Player {
	alive := make([]*Player, 0, len(gc.Players))
	for _, p := range gc.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}

	return alive
}

func (gc *GameContext) CountAlive() int {
	count := 0
	for _, p := range gc.Players {
		if p.Alive {
			count++
		}
	}

	return count
}

// PlayersSnapshot 返回名单的值拷贝，用于响应序列化
// （RespCh 字段带 json:"-"，不会泄露到客户端）
func (gc *GameContext) PlayersSnapshot() []Player {
	players := make([]Player, 0, len(gc.Players))
	for _, p := range gc.Players {
		players = append(players, *p)
	}

	return players
}

func (gc *GameContext) BroadcastResp(resp ResponseWrapper) {
	for _, p := range gc.Players {
		// AI 玩家没有连接，跳过
		if p.RespCh == nil {
			continue
		}

		select {
		case p.RespCh <- resp:
			zap.L().Debug(
				"成功发送广播响应",
				zap.String("player_id", p.ID),
				zap.Any("response", resp),
			)
		default:
			zap.L().Warn(
				"发送广播响应失败：玩家响应通道已满",
				zap.String("player_id", p.ID),
			)
		}
	}
}

func (gc *GameContext) UnicastResp(playerID string, resp ResponseWrapper) {
	player := gc.FindPlayer(playerID)
	if player == nil || player.RespCh == nil {
		zap.L().Warn(
			"无法找到玩家进行单播响应",
			zap.String("player_id", playerID),
		)
		return
	}

	select {
	case player.RespCh <- resp:
		zap.L().Debug(
			"发送单播响应成功",
			zap.String("player_id", playerID),
			zap.Any("response", resp),
		)
	default:
		zap.L().Warn(
			"发送单播响应失败：玩家响应通道已满",
			zap.String("player_id", playerID),
		)
	}
}

// SetTimeout 注册一个一次性的延迟事件，到期后把 TimeoutRequest
// 回注到事件循环。同一时间最多只有一个定时器在跑；请求携带
// 设置时刻的阶段和代数，迟到的定时器在 OnHandle 中被判旧丢弃
func (gc *GameContext) SetTimeout(d time.Duration) {
	gc.ClearTimeout()

	gc.TmoGeneration++

	stage := gc.GameStage
	generation := gc.TmoGeneration

	gc.Timer = time.AfterFunc(d, func() {
		wrapper := RequestWrapper{
			ReqType: REQ_TIMEOUT,
			NativeData: &TimeoutRequest{
				Stage:      stage,
				Generation: generation,
			},
		}

		select {
		case gc.TmoCh <- wrapper:
		default:
			zap.L().Warn(
				"超时事件投递失败：通道已满",
				zap.String("game_id", gc.GameID),
				zap.String("stage", stage),
			)
		}
	})
}

func (gc *GameContext) ClearTimeout() {
	if gc.Timer != nil {
		gc.Timer.Stop()
		gc.Timer = nil
	}
}
