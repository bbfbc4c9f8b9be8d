package leveling

import (
	"context"
	"log/slog"
	"time"

	"guild-leveling-bot/internal/metrics"
)

// RunAutosave flushes dirty state on a fixed interval until ctx is
// cancelled, then performs one final flush. Persistence is decoupled
// from the message path: grants only mark concerns dirty, this loop and
// the destructive operations do the actual writing.
func (e *Engine) RunAutosave(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.AutosaveInterval)
	defer ticker.Stop()

	slog.Info("Autosave started", "interval", e.cfg.AutosaveInterval)

	for {
		select {
		case <-ctx.Done():
			if err := e.Flush(context.Background()); err != nil {
				slog.Error("Failed final flush on shutdown", "error", err)
			}
			return
		case <-ticker.C:
			if err := e.Flush(ctx); err != nil {
				slog.Error("Failed periodic flush", "error", err)
			}
		}
	}
}

// Flush writes every dirty concern to the store. Concerns that fail
// stay dirty and are retried on the next flush.
func (e *Engine) Flush(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.FlushDuration.Observe(time.Since(start).Seconds())
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	flush := func(c concern, save func() error) {
		if !e.dirty[c] {
			return
		}
		if err := save(); err != nil {
			slog.Error("Failed to flush concern", "concern", string(c), "error", err)
			metrics.StoreFlushes.WithLabelValues(string(c), "failure").Inc()
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		metrics.StoreFlushes.WithLabelValues(string(c), "success").Inc()
		delete(e.dirty, c)
	}

	flush(concernProfiles, func() error { return e.store.SaveProfiles(ctx, e.data.Profiles) })
	flush(concernRewards, func() error { return e.store.SaveRewards(ctx, e.data.Rewards) })
	flush(concernTemplates, func() error { return e.store.SaveTemplates(ctx, e.data.Templates) })
	flush(concernBackgrounds, func() error { return e.store.SaveBackgrounds(ctx, e.data.Backgrounds) })
	flush(concernSettings, func() error { return e.store.SaveSettings(ctx, e.data.Settings) })

	return firstErr
}

// FlushAll marks every concern dirty and flushes, used on shutdown.
func (e *Engine) FlushAll(ctx context.Context) error {
	e.mu.Lock()
	e.markAllDirtyLocked()
	e.mu.Unlock()
	return e.Flush(ctx)
}

func (e *Engine) markAllDirtyLocked() {
	for _, c := range []concern{concernProfiles, concernRewards, concernTemplates, concernBackgrounds, concernSettings} {
		e.dirty[c] = true
	}
}
