package game

import (
	"errors"
	"testing"
)

func sevenUnassignedPlayers() []*Player {
	return []*Player{
		{ID: "p1", Name: "Alice", Alive: true},
		{ID: "p2", Name: "Bob", Alive: true},
		{ID: "p3", Name: "Carol", Alive: true},
		{ID: "p4", Name: "Dave", Alive: true},
		{ID: "p5", Name: "Eve", Alive: true},
		{ID: "p6", Name: "Frank", Alive: true},
		{ID: "p7", Name: "Grace", Alive: true},
	}
}

func playerWithRole(id, role string) *Player {
	return &Player{ID: id, Name: id, Role: role, Alive: true}
}

func TestAssignRoles_DealsExactlyTheSevenFixedRoles(t *testing.T) {
	players := sevenUnassignedPlayers()

	if err := assignRoles(players); err != nil {
		t.Fatalf("assignRoles should succeed on 7 players, got: %v", err)
	}

	seen := make(map[string]int)
	for _, p := range players {
		seen[p.Role]++

		if !p.Alive {
			t.Fatalf("player %s should start alive", p.ID)
		}
		if p.VotesReceived != 0 || p.HitsSurvived != 0 {
			t.Fatalf("player %s counters should be zeroed", p.ID)
		}
	}

	for _, role := range FixedRoles {
		if seen[role] != 1 {
			t.Fatalf("role %s assigned %d times, want exactly 1", role, seen[role])
		}
	}
}

func TestAssignRoles_RejectsWrongPlayerCount(t *testing.T) {
	players := sevenUnassignedPlayers()[:6]

	err := assignRoles(players)
	if !errors.Is(err, ErrInvalidPlayerCount) {
		t.Fatalf("want ErrInvalidPlayerCount, got: %v", err)
	}
}

func TestResolveNight_AINightmareFallbackKillsOneValidTarget(t *testing.T) {
	nightmare := playerWithRole("nm", ROLE_NIGHTMARE)
	nightmare.IsAI = true

	players := []*Player{
		nightmare,
		playerWithRole("wt", ROLE_WITCH),
		playerWithRole("p3", ROLE_DETECTIVE),
		playerWithRole("p4", ROLE_DUANT),
		playerWithRole("p5", ROLE_JOKER),
		playerWithRole("p6", ROLE_KING),
		playerWithRole("p7", ROLE_VILLAGER),
	}

	actions := NightActionSet{}
	deaths := resolveNight(&actions, players)

	if actions.KillTarget == "" {
		t.Fatalf("AI nightmare should have picked a kill target")
	}

	victim := findPlayerIn(players, actions.KillTarget)
	if victim == nil {
		t.Fatalf("kill target %q not in roster", actions.KillTarget)
	}
	if victim.Role == ROLE_NIGHTMARE || victim.Role == ROLE_WITCH {
		t.Fatalf("AI nightmare must not target %s", victim.Role)
	}

	// 国王会吸收第一击，其他目标都应当产生恰好一名死者
	if victim.Role == ROLE_KING {
		if len(deaths) != 0 {
			t.Fatalf("king should absorb the first hit, got deaths %v", deaths)
		}
		if victim.HitsSurvived != 1 {
			t.Fatalf("king hits survived = %d, want 1", victim.HitsSurvived)
		}
	} else {
		if len(deaths) != 1 || deaths[0] != victim.ID {
			t.Fatalf("want exactly one death (%s), got %v", victim.ID, deaths)
		}
		if victim.Alive {
			t.Fatalf("victim should be marked dead")
		}
	}
}

func TestResolveNight_KingDiesOnSecondHitOnly(t *testing.T) {
	king := playerWithRole("kg", ROLE_KING)
	players := []*Player{
		playerWithRole("nm", ROLE_NIGHTMARE),
		king,
		playerWithRole("p3", ROLE_VILLAGER),
	}

	firstNight := NightActionSet{KillTarget: "kg"}
	deaths := resolveNight(&firstNight, players)

	if len(deaths) != 0 {
		t.Fatalf("first hit should be absorbed, got deaths %v", deaths)
	}
	if !king.Alive {
		t.Fatalf("king should survive the first hit")
	}
	if king.HitsSurvived != 1 {
		t.Fatalf("king hits survived = %d, want 1", king.HitsSurvived)
	}

	secondNight := NightActionSet{KillTarget: "kg"}
	deaths = resolveNight(&secondNight, players)

	if len(deaths) != 1 || deaths[0] != "kg" {
		t.Fatalf("second hit should kill the king, got deaths %v", deaths)
	}
	if king.Alive {
		t.Fatalf("king should be dead after two hits")
	}
}

func TestResolveNight_DuantDiesWithLinkedVictim(t *testing.T) {
	victim := playerWithRole("p3", ROLE_VILLAGER)
	duant := playerWithRole("du", ROLE_DUANT)

	players := []*Player{
		playerWithRole("nm", ROLE_NIGHTMARE),
		victim,
		duant,
	}

	actions := NightActionSet{
		KillTarget:  "p3",
		DuantTarget: "p3",
	}

	deaths := resolveNight(&actions, players)

	if len(deaths) != 2 {
		t.Fatalf("want victim and duant dead, got %v", deaths)
	}
	if deaths[0] != "p3" || deaths[1] != "du" {
		t.Fatalf("deaths order should be victim then duant, got %v", deaths)
	}
	if victim.Alive || duant.Alive {
		t.Fatalf("both victim and duant should be marked dead")
	}
}

func TestResolveNight_AbsorbedHitDoesNotTriggerDuantLink(t *testing.T) {
	king := playerWithRole("kg", ROLE_KING)
	duant := playerWithRole("du", ROLE_DUANT)

	players := []*Player{
		playerWithRole("nm", ROLE_NIGHTMARE),
		king,
		duant,
	}

	actions := NightActionSet{
		KillTarget:  "kg",
		DuantTarget: "kg",
	}

	deaths := resolveNight(&actions, players)

	if len(deaths) != 0 {
		t.Fatalf("absorbed hit should produce no deaths, got %v", deaths)
	}
	if !duant.Alive {
		t.Fatalf("duant must not die when the kill was absorbed")
	}
}

func TestResolveNight_UnknownKillTargetIgnored(t *testing.T) {
	players := []*Player{
		playerWithRole("nm", ROLE_NIGHTMARE),
		playerWithRole("p2", ROLE_VILLAGER),
	}

	actions := NightActionSet{KillTarget: "ghost"}
	deaths := resolveNight(&actions, players)

	if len(deaths) != 0 {
		t.Fatalf("unknown target should be ignored, got deaths %v", deaths)
	}
}

func TestResolveDay_MostVotedPlayerEliminated(t *testing.T) {
	players := []*Player{
		playerWithRole("x", ROLE_VILLAGER),
		playerWithRole("y", ROLE_DETECTIVE),
		playerWithRole("v1", ROLE_KING),
		playerWithRole("v2", ROLE_DUANT),
		playerWithRole("v3", ROLE_JOKER),
	}

	votes := map[string]string{
		"v1": "x",
		"v2": "x",
		"v3": "y",
	}

	eliminatedID := resolveDay(votes, players)

	if eliminatedID != "x" {
		t.Fatalf("want x eliminated (2 > 1), got %q", eliminatedID)
	}
	if findPlayerIn(players, "x").Alive {
		t.Fatalf("eliminated player should be marked dead")
	}
	if !findPlayerIn(players, "y").Alive {
		t.Fatalf("y should survive with fewer votes")
	}
}

func TestResolveDay_TieBrokenByRosterOrder(t *testing.T) {
	players := []*Player{
		playerWithRole("x", ROLE_VILLAGER),
		playerWithRole("y", ROLE_DETECTIVE),
	}

	votes := map[string]string{
		"x": "y",
		"y": "x",
	}

	eliminatedID := resolveDay(votes, players)

	if eliminatedID != "x" {
		t.Fatalf("tie should favor the earlier roster position, got %q", eliminatedID)
	}
}

func TestResolveDay_VotesForDeadTargetNotCounted(t *testing.T) {
	dead := playerWithRole("dd", ROLE_VILLAGER)
	dead.Alive = false

	players := []*Player{
		playerWithRole("x", ROLE_KING),
		dead,
		playerWithRole("y", ROLE_DETECTIVE),
	}

	votes := map[string]string{
		"v1": "dd",
		"v2": "dd",
		"x":  "y",
	}

	eliminatedID := resolveDay(votes, players)

	if eliminatedID != "y" {
		t.Fatalf("dead target votes should be discounted, want y eliminated, got %q", eliminatedID)
	}
	if dead.VotesReceived != 0 {
		t.Fatalf("dead player accumulated votes: %d", dead.VotesReceived)
	}
}

func TestResolveDay_EmptyLivingRosterNoElimination(t *testing.T) {
	p := playerWithRole("p1", ROLE_VILLAGER)
	p.Alive = false

	eliminatedID := resolveDay(map[string]string{}, []*Player{p})

	if eliminatedID != "" {
		t.Fatalf("no living players should mean no elimination, got %q", eliminatedID)
	}
}

func TestEvaluateWin(t *testing.T) {
	cases := []struct {
		name   string
		setup  func() []*Player
		winner string
	}{
		{
			name: "no living evil means good wins",
			setup: func() []*Player {
				nm := playerWithRole("nm", ROLE_NIGHTMARE)
				nm.Alive = false
				wt := playerWithRole("wt", ROLE_WITCH)
				wt.Alive = false
				return []*Player{nm, wt, playerWithRole("p3", ROLE_VILLAGER)}
			},
			winner: WINNER_GOOD,
		},
		{
			name: "evil at parity wins",
			setup: func() []*Player {
				return []*Player{
					playerWithRole("nm", ROLE_NIGHTMARE),
					playerWithRole("wt", ROLE_WITCH),
					playerWithRole("p3", ROLE_VILLAGER),
					playerWithRole("p4", ROLE_KING),
				}
			},
			winner: WINNER_EVIL,
		},
		{
			name: "evil outnumbered means no winner yet",
			setup: func() []*Player {
				return []*Player{
					playerWithRole("nm", ROLE_NIGHTMARE),
					playerWithRole("p3", ROLE_VILLAGER),
					playerWithRole("p4", ROLE_KING),
					playerWithRole("p5", ROLE_JOKER),
				}
			},
			winner: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := evaluateWin(tc.setup())
			if got != tc.winner {
				t.Fatalf("want winner %q, got %q", tc.winner, got)
			}
		})
	}
}
