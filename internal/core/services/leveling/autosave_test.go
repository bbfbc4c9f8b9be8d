package leveling

import (
	"context"
	"errors"
	"testing"
	"time"

	"guild-leveling-bot/internal/core/domain"
)

func TestFlush(t *testing.T) {
	t.Run("writes only dirty concerns", func(t *testing.T) {
		store := &mockStore{}
		engine := makeEngine(store, nil, nil, nil)
		engine.AddReward("guild-1", 5, "role-a")

		if err := engine.Flush(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.saved["rewards"] != 1 {
			t.Errorf("expected rewards flushed once, got %d", store.saved["rewards"])
		}
		if store.saved["profiles"] != 0 {
			t.Errorf("clean concern flushed: %v", store.saved)
		}
	})

	t.Run("clean flush is a no-op", func(t *testing.T) {
		store := &mockStore{}
		engine := makeEngine(store, nil, nil, nil)
		engine.AddReward("guild-1", 5, "role-a")
		engine.Flush(context.Background())

		if err := engine.Flush(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.saved["rewards"] != 1 {
			t.Errorf("clean concern flushed again: %d", store.saved["rewards"])
		}
	})

	t.Run("failed concern stays dirty and is retried", func(t *testing.T) {
		failing := true
		store := &mockStore{
			saveRewardsFunc: func(ctx context.Context, rewards map[string]domain.RewardTable) error {
				if failing {
					return errors.New("disk full")
				}
				return nil
			},
		}
		engine := makeEngine(store, nil, nil, nil)
		engine.AddReward("guild-1", 5, "role-a")
		engine.SetTemplate("guild-1", 0, "gg {user}")

		if err := engine.Flush(context.Background()); err == nil {
			t.Fatal("expected flush error")
		}
		if store.saved["templates"] != 1 {
			t.Error("healthy concern must still flush when another fails")
		}

		failing = false
		if err := engine.Flush(context.Background()); err != nil {
			t.Fatalf("unexpected error on retry: %v", err)
		}
		if store.saved["rewards"] != 2 {
			t.Errorf("expected rewards retried, got %d attempts", store.saved["rewards"])
		}
		if store.saved["templates"] != 1 {
			t.Error("already-flushed concern written again")
		}
	})
}

func TestFlushAll(t *testing.T) {
	store := &mockStore{}
	engine := makeEngine(store, nil, nil, nil)

	if err := engine.FlushAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, concern := range []string{"profiles", "rewards", "templates", "backgrounds", "settings"} {
		if store.saved[concern] != 1 {
			t.Errorf("expected %s flushed, got %d", concern, store.saved[concern])
		}
	}
}

func TestRunAutosave(t *testing.T) {
	t.Run("final flush on cancellation", func(t *testing.T) {
		store := &mockStore{}
		engine := makeEngine(store, nil, nil, nil)
		engine.cfg.AutosaveInterval = time.Hour // only the shutdown flush should fire
		engine.AddReward("guild-1", 5, "role-a")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			engine.RunAutosave(ctx)
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("autosave did not stop")
		}

		if store.saved["rewards"] != 1 {
			t.Errorf("expected final flush, got %d", store.saved["rewards"])
		}
	})
}
