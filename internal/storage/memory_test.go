package storage

import (
	"testing"

	"mafia-game-be/internal/service/game"
)

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.Load("g1")
	if err != nil {
		t.Fatalf("load empty store: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for a missing game, got %+v", got)
	}

	if err := store.Save("g1", sampleSnapshot("g1", game.STAGE_LOBBY)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err = store.Load("g1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.Stage != game.STAGE_LOBBY {
		t.Fatalf("loaded snapshot = %+v, want lobby stage", got)
	}

	// 覆盖写
	if err := store.Save("g1", sampleSnapshot("g1", game.STAGE_DAY)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = store.Load("g1")
	if got.Stage != game.STAGE_DAY {
		t.Fatalf("stage = %s after overwrite, want %s", got.Stage, game.STAGE_DAY)
	}

	if err := store.Delete("g1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = store.Load("g1")
	if got != nil {
		t.Fatalf("snapshot should be gone after delete, got %+v", got)
	}
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Save("g1", sampleSnapshot("g1", game.STAGE_NIGHT)); err != nil {
		t.Fatalf("save: %v", err)
	}

	first, _ := store.Load("g1")
	first.Stage = "mutated"

	second, _ := store.Load("g1")
	if second.Stage != game.STAGE_NIGHT {
		t.Fatalf("mutating a loaded snapshot leaked into the store")
	}
}
