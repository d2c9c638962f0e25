package game

// 七个固定角色，每局游戏各出现一次
const (
	ROLE_UNSET     = "Unset"
	ROLE_NIGHTMARE = "Nightmare"
	ROLE_WITCH     = "Witch"
	ROLE_DETECTIVE = "Detective"
	ROLE_DUANT     = "Duant"
	ROLE_JOKER     = "Joker"
	ROLE_KING      = "King"
	ROLE_VILLAGER  = "Villager"
)

// FixedRoles 是一局游戏必须恰好分配一遍的角色集合
var FixedRoles = []string{
	ROLE_NIGHTMARE,
	ROLE_WITCH,
	ROLE_DETECTIVE,
	ROLE_DUANT,
	ROLE_JOKER,
	ROLE_KING,
	ROLE_VILLAGER,
}

// 阵营划分：恶方为 Nightmare 和 Witch，其余均计入善方
// 注意 Joker 和 King 虽有特殊规则，但在阵营统计中属于善方
func IsEvilRole(role string) bool {
	return role == ROLE_NIGHTMARE || role == ROLE_WITCH
}

// 胜利方
const (
	WINNER_GOOD  = "good"
	WINNER_EVIL  = "evil"
	WINNER_JOKER = "joker"
)

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	// 存活标记，只能由 true 变为 false
	Alive bool `json:"alive"`
	// 白天收到的票数，每个白天阶段开始时清零
	VotesReceived int `json:"votes_received"`
	// 国王吸收过的夜袭次数，整局保留，达到 2 即死亡
	HitsSurvived int `json:"hits_survived"`
	// 是否为系统托管的 AI 玩家
	IsAI bool `json:"is_ai"`

	RespCh chan ResponseWrapper `json:"-"`
}

// NightActionSet 保存当前夜晚收集到的行动目标
// 所有字段均可为空（空字符串表示未提交），每个夜晚开始时整体重置
type NightActionSet struct {
	WitchInspection     string `json:"witch_inspection,omitempty"`
	DetectiveInspection string `json:"detective_inspection,omitempty"`
	DuantTarget         string `json:"duant_target,omitempty"`
	KillTarget          string `json:"kill_target,omitempty"`
}
