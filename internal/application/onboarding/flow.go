package onboarding

import (
	"context"

	"go.uber.org/zap"

	"github.com/creatorly/creator-sdk/internal/domain/onboarding"
	"github.com/creatorly/creator-sdk/internal/domain/shared"
	"github.com/creatorly/creator-sdk/internal/infrastructure/persistence"
)

// Flow drives the onboarding state machine for one session: it initializes
// progress from the backend (or the local cache, or defaults), folds step
// submissions into the state, and keeps the local cache current.
type Flow struct {
	client   *Client
	cache    *persistence.StateCache
	logger   *zap.Logger
	progress *onboarding.Progress
}

// NewFlow creates a flow. The cache may be nil; progress then lives only
// in memory.
func NewFlow(client *Client, cache *persistence.StateCache, logger *zap.Logger) *Flow {
	return &Flow{
		client:   client,
		cache:    cache,
		logger:   logger,
		progress: onboarding.NewProgress(),
	}
}

// Progress exposes the current state for rendering.
func (f *Flow) Progress() *onboarding.Progress {
	return f.progress
}

// Load initializes the state machine. The backend snapshot is
// authoritative; when the fetch fails the flow falls back to the cached
// snapshot, and failing that to first-time-user defaults. A dead end is
// never presented to the user: a failed fetch is logged, not returned.
func (f *Flow) Load(ctx context.Context) {
	snap, err := f.client.GetStatus(ctx)
	if err == nil {
		f.progress = onboarding.FromSnapshot(snap)
		f.persist()
		return
	}
	f.logger.Warn("status fetch failed, using local state", zap.String("reason", shared.UserMessage(err)))

	if f.cache != nil {
		if cached, ok, cacheErr := f.cache.LoadSnapshot(); cacheErr == nil && ok {
			f.progress = onboarding.FromSnapshot(cached)
			return
		}
	}
	f.progress = onboarding.NewProgress()
}

// Complete submits step n and, on success, records the completion and
// advances the state. On failure the state does not move: the error is
// surfaced for redisplay and no partial completion is recorded.
func (f *Flow) Complete(ctx context.Context, step int, payload any) (StepAck, error) {
	ack, err := f.client.SubmitStep(ctx, step, payload)
	if err != nil {
		return StepAck{}, err
	}
	if err := f.progress.CompleteStep(step, payload); err != nil {
		return StepAck{}, err
	}
	f.persist()
	return ack, nil
}

// Navigate moves the current step for manual back/forward navigation,
// within the bounds the state machine allows.
func (f *Flow) Navigate(step int) bool {
	moved := f.progress.NavigateTo(step)
	if moved {
		f.persist()
	}
	return moved
}

// persist mirrors the state into the local cache so a reloaded client
// resumes from last-known progress. Cache trouble is never fatal.
func (f *Flow) persist() {
	if f.cache == nil {
		return
	}
	if f.progress.IsComplete() {
		if err := f.cache.ClearSnapshot(); err != nil {
			f.logger.Debug("failed to clear snapshot cache", zap.Error(err))
		}
		return
	}
	if err := f.cache.SaveSnapshot(f.progress.ToSnapshot()); err != nil {
		f.logger.Debug("failed to cache snapshot", zap.Error(err))
	}
}
