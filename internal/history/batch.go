package history

import (
	"errors"
	"time"

	posterkit "github.com/alnah/go-posterkit"
)

// Run outcomes.
const (
	OutcomeCompleted = "completed" // every task completed
	OutcomePartial   = "partial"   // at least one task failed
	OutcomeCancelled = "cancelled" // the run was cancelled before finishing
)

// OutcomeFor classifies a finished Start call.
func OutcomeFor(startErr error, state posterkit.RunState) string {
	switch {
	case errors.Is(startErr, posterkit.ErrBatchCancelled):
		return OutcomeCancelled
	case state.Failed > 0 || startErr != nil:
		return OutcomePartial
	default:
		return OutcomeCompleted
	}
}

// FromBatch builds a Run from the current state of b. Completed tasks
// record their artifact filename.
func FromBatch(b *posterkit.Batch, posterType string, startErr error, started, finished time.Time) Run {
	state := b.Snapshot()
	run := Run{
		ID:         state.ID,
		Subject:    state.Subject,
		PosterType: posterType,
		Outcome:    OutcomeFor(startErr, state),
		StartedAt:  started,
		FinishedAt: finished,
		Total:      state.Total,
		Completed:  state.Completed,
		Failed:     state.Failed,
		Tasks:      make([]TaskRecord, 0, len(state.Tasks)),
	}
	for _, t := range state.Tasks {
		rec := TaskRecord{ID: t.ID, Name: t.Name, Status: string(t.Status), Error: t.Error}
		if t.Status == posterkit.StatusCompleted {
			if _, name, err := b.Artifact(t.ID); err == nil {
				rec.Artifact = name
			}
		}
		if t.Status == posterkit.StatusPending {
			run.Pending++
		}
		run.Tasks = append(run.Tasks, rec)
	}
	return run
}
