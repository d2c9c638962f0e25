package game

import (
	"sync"
	"testing"
	"time"
)

// stubSnapshotStore 记录最近一次保存的快照，供测试断言
type stubSnapshotStore struct {
	mu   sync.Mutex
	last map[string]Snapshot
}

func newStubSnapshotStore() *stubSnapshotStore {
	return &stubSnapshotStore{last: make(map[string]Snapshot)}
}

func (s *stubSnapshotStore) Save(gameID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[gameID] = snap
	return nil
}

func (s *stubSnapshotStore) Load(gameID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.last[gameID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *stubSnapshotStore) Delete(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, gameID)
	return nil
}

func (s *stubSnapshotStore) snapshot(gameID string) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.last[gameID]
	if !ok {
		return nil
	}
	return &snap
}

// waitForStage 轮询快照直到到达期望阶段
func waitForStage(t *testing.T, store *stubSnapshotStore, gameID, stage string) *Snapshot {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if snap := store.snapshot(gameID); snap != nil && snap.Stage == stage {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("game %s never reached stage %s", gameID, stage)
	return nil
}

func waitForResp(t *testing.T, ch chan ResponseWrapper, respType string) ResponseWrapper {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case resp := <-ch:
			if resp.RespType == respType {
				return resp
			}
		case <-deadline:
			t.Fatalf("never received response of type %s", respType)
		}
	}
}

func TestGameMachine_JoinPersistsSnapshot(t *testing.T) {
	store := newStubSnapshotStore()
	doneCh := make(chan struct{})
	defer close(doneCh)

	gm := NewGameMachine("m1", time.Hour, store, doneCh)
	go gm.Start()

	respCh := make(chan ResponseWrapper, 64)
	gm.GetReqCh() <- joinWrapper("h1", "Human", respCh)

	waitForResp(t, respCh, RESP_JOIN_GAME)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap := store.snapshot("m1")
		if snap != nil && len(snap.Players) == 1 {
			if snap.Stage != STAGE_LOBBY {
				t.Fatalf("snapshot stage = %s, want %s", snap.Stage, STAGE_LOBBY)
			}
			if snap.Players[0].ID != "h1" {
				t.Fatalf("snapshot player = %s, want h1", snap.Players[0].ID)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("join was never persisted")
}

func TestGameMachine_StartWithAIFlowsIntoNight(t *testing.T) {
	store := newStubSnapshotStore()
	doneCh := make(chan struct{})
	defer close(doneCh)

	// 超时设得足够大，避免定时器在断言前触发结算
	gm := NewGameMachine("m2", time.Hour, store, doneCh)
	go gm.Start()

	respCh := make(chan ResponseWrapper, 64)
	gm.GetReqCh() <- joinWrapper("h1", "Human", respCh)
	waitForResp(t, respCh, RESP_JOIN_GAME)

	gm.GetReqCh() <- RequestWrapper{
		ReqType: REQ_START_WITH_AI,
		Data:    mustMarshal(StartWithAIRequest{StartPlayerID: "h1"}),
	}

	// 真人玩家必须私收到自己的角色
	roleResp := waitForResp(t, respCh, RESP_ROLE_ASSIGNED)

	data, ok := roleResp.Data.(RoleAssignedResponse)
	if !ok {
		t.Fatalf("unexpected role response payload: %T", roleResp.Data)
	}

	validRoles := make(map[string]bool)
	for _, role := range FixedRoles {
		validRoles[role] = true
	}
	if !validRoles[data.Role] {
		t.Fatalf("assigned role %q not in the fixed set", data.Role)
	}

	// 分配阶段不停留，快照应当直接落在夜晚
	snap := waitForStage(t, store, "m2", STAGE_NIGHT)

	if len(snap.Players) != PLAYER_COUNT {
		t.Fatalf("snapshot roster size = %d, want %d", len(snap.Players), PLAYER_COUNT)
	}

	seen := make(map[string]bool)
	for _, p := range snap.Players {
		if p.Role == ROLE_UNSET {
			t.Fatalf("player %s still unassigned in night snapshot", p.ID)
		}
		if seen[p.Role] {
			t.Fatalf("role %s assigned twice", p.Role)
		}
		seen[p.Role] = true
	}

	// 入夜也要广播阶段变化
	waitForResp(t, respCh, RESP_PHASE_CHANGE)
}

func TestGameMachine_EndNightAdvancesToDay(t *testing.T) {
	store := newStubSnapshotStore()
	doneCh := make(chan struct{})
	defer close(doneCh)

	gm := NewGameMachine("m3", time.Hour, store, doneCh)
	go gm.Start()

	respCh := make(chan ResponseWrapper, 64)
	gm.GetReqCh() <- joinWrapper("h1", "Human", respCh)
	waitForResp(t, respCh, RESP_JOIN_GAME)

	gm.GetReqCh() <- RequestWrapper{
		ReqType: REQ_START_WITH_AI,
		Data:    mustMarshal(StartWithAIRequest{StartPlayerID: "h1"}),
	}
	waitForStage(t, store, "m3", STAGE_NIGHT)

	gm.GetReqCh() <- RequestWrapper{ReqType: REQ_END_NIGHT}

	// 七人局第一夜不可能直接分出胜负
	snap := waitForStage(t, store, "m3", STAGE_DAY)

	if alive := len(snap.Players); alive != PLAYER_COUNT {
		t.Fatalf("roster size changed to %d, want %d", alive, PLAYER_COUNT)
	}
}

func TestGameMachine_IsFinishedSafeOutsideEventLoop(t *testing.T) {
	store := newStubSnapshotStore()
	doneCh := make(chan struct{})
	defer close(doneCh)

	gm := NewGameMachine("m5", time.Hour, store, doneCh)
	go gm.Start()

	// 模拟清理协程：与事件循环全程并行地轮询终局标志，
	// 竞态检测器下必须干净
	stopPoll := make(chan struct{})
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		for {
			select {
			case <-stopPoll:
				return
			default:
				gm.IsFinished()
				time.Sleep(time.Millisecond)
			}
		}
	}()
	defer func() {
		close(stopPoll)
		<-pollDone
	}()

	respCh := make(chan ResponseWrapper, 64)
	gm.GetReqCh() <- joinWrapper("h1", "Human", respCh)
	waitForResp(t, respCh, RESP_JOIN_GAME)

	gm.GetReqCh() <- RequestWrapper{
		ReqType: REQ_START_WITH_AI,
		Data:    mustMarshal(StartWithAIRequest{StartPlayerID: "h1"}),
	}
	waitForStage(t, store, "m5", STAGE_NIGHT)

	if gm.IsFinished() {
		t.Fatalf("game in night stage must not report finished")
	}

	// 反复推进昼夜直到分出胜负：每个白天必然淘汰一人，终局有界
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := store.snapshot("m5")
		if snap == nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if snap.Stage == STAGE_GAME_OVER {
			break
		}

		switch snap.Stage {
		case STAGE_NIGHT:
			gm.GetReqCh() <- RequestWrapper{ReqType: REQ_END_NIGHT}
		case STAGE_DAY:
			gm.GetReqCh() <- RequestWrapper{ReqType: REQ_END_DAY}
		}

		time.Sleep(10 * time.Millisecond)
	}

	snap := waitForStage(t, store, "m5", STAGE_GAME_OVER)
	if snap.Winner == "" {
		t.Fatalf("game over snapshot must carry a winner")
	}

	// 终局标志先于快照发布，快照可见时这里必须已经为真
	if !gm.IsFinished() {
		t.Fatalf("IsFinished should report true once the game is over")
	}
}

func TestGameMachine_ResetReturnsToLobby(t *testing.T) {
	store := newStubSnapshotStore()
	doneCh := make(chan struct{})
	defer close(doneCh)

	gm := NewGameMachine("m4", time.Hour, store, doneCh)
	go gm.Start()

	respCh := make(chan ResponseWrapper, 64)
	gm.GetReqCh() <- joinWrapper("h1", "Human", respCh)
	waitForResp(t, respCh, RESP_JOIN_GAME)

	gm.GetReqCh() <- RequestWrapper{
		ReqType: REQ_START_WITH_AI,
		Data:    mustMarshal(StartWithAIRequest{StartPlayerID: "h1"}),
	}
	waitForStage(t, store, "m4", STAGE_NIGHT)

	gm.GetReqCh() <- RequestWrapper{ReqType: REQ_RESET}

	snap := waitForStage(t, store, "m4", STAGE_LOBBY)

	if len(snap.Players) != 0 {
		t.Fatalf("lobby after reset should be empty, got %d players", len(snap.Players))
	}
	if snap.Winner != "" {
		t.Fatalf("reset should clear the winner, got %q", snap.Winner)
	}
}
