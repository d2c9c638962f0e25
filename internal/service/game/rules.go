package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
)

// 一局游戏要求的玩家数量
const PLAYER_COUNT = 7

var (
	// ErrInvalidPlayerCount 表示在玩家数不是 7 时尝试分配角色
	ErrInvalidPlayerCount = errors.New("角色分配失败：玩家数量必须恰好为 7")
	// ErrInsufficientPlayers 表示人数不足且未要求 AI 补位时请求开始
	ErrInsufficientPlayers = errors.New("无法开始游戏：玩家数量不足 7 人")
)

func findPlayerIn(players []*Player, playerID string) *Player {
	for _, p := range players {
		if p.ID == playerID {
			return p
		}
	}

	return nil
}

// assignRoles 将七个固定角色均匀随机地一一分配给七名玩家
// 只允许在全新名单上调用一次，重复调用属于调用方错误
func assignRoles(players []*Player) error {
	if len(players) != PLAYER_COUNT {
		return ErrInvalidPlayerCount
	}

	roles := append([]string{}, FixedRoles...)

	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, p := range players {
		p.Role = roles[i]
		p.Alive = true
		p.VotesReceived = 0
		p.HitsSurvived = 0
	}

	return nil
}

// fillWithAI 用 AI 玩家把名单补足到七人
func fillWithAI(ctx *GameContext) {
	need := PLAYER_COUNT - len(ctx.Players)

	for i := 0; i < need; i++ {
		ctx.Players = append(ctx.Players, &Player{
			ID:    fmt.Sprintf("ai_%d", i),
			Name:  fmt.Sprintf("AI Player %d", i+1),
			Alive: true,
			IsAI:  true,
		})
	}
}

// resolveNight 按固定顺序结算夜晚行动，原地更新存活标记，
// 返回本夜死亡的玩家 ID 列表（每个 ID 至多出现一次）
func resolveNight(actions *NightActionSet, players []*Player) []string {
	deaths := make([]string, 0, 2)

	// 1. AI 噩梦兜底：存活的 AI 噩梦在本夜没有击杀目标时，
	//    从存活的非噩梦、非女巫玩家中均匀随机挑选一个
	var nightmare *Player
	for _, p := range players {
		if p.Role == ROLE_NIGHTMARE && p.IsAI && p.Alive {
			nightmare = p
			break
		}
	}

	if nightmare != nil && actions.KillTarget == "" {
		candidates := make([]*Player, 0, len(players))
		for _, p := range players {
			if p.Alive && p.Role != ROLE_NIGHTMARE && p.Role != ROLE_WITCH {
				candidates = append(candidates, p)
			}
		}

		if len(candidates) > 0 {
			target := candidates[rand.IntN(len(candidates))]
			actions.KillTarget = target.ID

			zap.L().Debug(
				"AI 噩梦自动选择击杀目标",
				zap.String("target_id", target.ID),
			)
		}
	}

	// 2. 女巫与侦探的查验目标只做记录，目前不产生任何可见效果

	// 3. 击杀结算；目标不存在或已死亡时静默忽略
	if actions.KillTarget != "" {
		target := findPlayerIn(players, actions.KillTarget)
		if target != nil && target.Alive {
			killed := false

			if target.Role == ROLE_KING {
				// 国王可以吸收第一次夜袭，第二次才会死亡
				target.HitsSurvived++
				if target.HitsSurvived >= 2 {
					target.Alive = false
					deaths = append(deaths, target.ID)
					killed = true
				}
			} else {
				target.Alive = false
				deaths = append(deaths, target.ID)
				killed = true
			}

			// 4. 杜安连结：只有真实死亡（而非被国王吸收的一击）
			//    且存活杜安的连结目标恰为死者时，杜安随之死亡
			if killed {
				for _, p := range players {
					if p.Role == ROLE_DUANT && p.Alive && actions.DuantTarget == target.ID {
						p.Alive = false
						deaths = append(deaths, p.ID)
						break
					}
				}
			}
		}
	}

	return deaths
}

// resolveDay 统计白天投票并淘汰得票最多的存活玩家。
// 只有投给存活目标的票才计数；平票时取名单中靠前者。
// 返回被淘汰玩家的 ID，无人可淘汰时返回空字符串
func resolveDay(votes map[string]string, players []*Player) string {
	for _, p := range players {
		if p.Alive {
			p.VotesReceived = 0
		}
	}

	for _, targetID := range votes {
		target := findPlayerIn(players, targetID)
		if target != nil && target.Alive {
			target.VotesReceived++
		}
	}

	var eliminated *Player
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if eliminated == nil || p.VotesReceived > eliminated.VotesReceived {
			eliminated = p
		}
	}

	if eliminated == nil {
		return ""
	}

	eliminated.Alive = false

	return eliminated.ID
}

// evaluateWin 统计存活的善恶双方人数并判定胜负：
// 恶方全灭则善方胜；恶方人数大于等于善方则恶方胜；
// 否则游戏继续，返回空字符串
func evaluateWin(players []*Player) string {
	aliveEvil := 0
	aliveGood := 0

	for _, p := range players {
		if !p.Alive {
			continue
		}

		if IsEvilRole(p.Role) {
			aliveEvil++
		} else {
			aliveGood++
		}
	}

	if aliveEvil == 0 {
		return WINNER_GOOD
	}

	if aliveEvil >= aliveGood {
		return WINNER_EVIL
	}

	return ""
}
