package posterkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Batch renders a list of task specs one at a time through a Mounter.
//
// All methods are safe for concurrent use. Start blocks until the queue is
// drained or the run is cancelled; Pause, Resume, Cancel and the snapshot
// accessors are meant to be called from other goroutines while it runs.
// Subscribers are invoked synchronously from the goroutine that caused the
// event, never while the batch lock is held, so they may call back into the
// batch.
type Batch struct {
	id      string
	subject string
	size    Size
	mounter Mounter
	cfg     batchConfig
	log     *logrus.Entry

	mu       sync.Mutex
	tasks    []Task
	markup   []string
	index    map[string]int
	current  int
	running  bool
	paused   bool
	resumeCh chan struct{}
	cancel   context.CancelFunc
	subs     map[int]func(Event)
	nextSub  int
}

// NewBatch creates a batch in which every task is pending. Specs without an
// ID get one. Panics if mounter is nil.
func NewBatch(specs []TaskSpec, size Size, subject string, mounter Mounter, opts ...BatchOption) (*Batch, error) {
	if mounter == nil {
		panic("posterkit: NewBatch mounter must not be nil")
	}
	if len(specs) == 0 {
		return nil, ErrNoTasks
	}
	if err := size.Validate(); err != nil {
		return nil, err
	}

	cfg := defaultBatchConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateNamePart("subject", subject); err != nil {
		return nil, err
	}
	if err := validateNamePart("suffix", cfg.suffix); err != nil {
		return nil, err
	}

	b := &Batch{
		id:      ulid.Make().String(),
		subject: subject,
		size:    size,
		mounter: mounter,
		cfg:     cfg,
		tasks:   make([]Task, 0, len(specs)),
		markup:  make([]string, 0, len(specs)),
		index:   make(map[string]int, len(specs)),
		subs:    make(map[int]func(Event)),
	}
	b.log = cfg.logger.WithFields(logrus.Fields{"batch": b.id, "subject": subject})

	for _, spec := range specs {
		id := spec.ID
		if id == "" {
			id = ulid.Make().String()
		}
		if err := validateNamePart("variant", spec.Name); err != nil {
			return nil, err
		}
		if _, dup := b.index[id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTaskID, id)
		}
		b.index[id] = len(b.tasks)
		b.tasks = append(b.tasks, Task{ID: id, Name: spec.Name, Status: StatusPending})
		b.markup = append(b.markup, spec.Markup)
	}
	return b, nil
}

// ID returns the batch identifier.
func (b *Batch) ID() string { return b.id }

// Subject returns the subject name used in artifact filenames.
func (b *Batch) Subject() string { return b.subject }

// Start processes every pending task in order and returns when none remain.
// Task failures do not stop the run. Returns ErrBatchRunning if a run is
// already in progress and ErrBatchCancelled if the run was cancelled, in
// which case unprocessed tasks stay pending and a later Start resumes them.
func (b *Batch) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrBatchRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.running = true
	b.paused = false
	b.cancel = cancel
	b.mu.Unlock()

	defer func() {
		cancel()
		b.mu.Lock()
		b.running = false
		b.paused = false
		b.cancel = nil
		b.mu.Unlock()
	}()

	b.log.WithField("tasks", len(b.tasks)).Info("batch started")
	started := false

	for idx := range b.tasks {
		if b.statusAt(idx) != StatusPending {
			continue
		}
		if started {
			if err := sleepContext(runCtx, b.cfg.taskDelay); err != nil {
				return b.stopped()
			}
		}
		if err := b.waitIfPaused(runCtx); err != nil {
			return b.stopped()
		}
		if runCtx.Err() != nil {
			return b.stopped()
		}
		started = true

		if err := b.processOne(runCtx, idx); err != nil {
			if runCtx.Err() != nil {
				b.abandon(idx)
				return b.stopped()
			}
			b.fail(idx, err)
		}
	}

	state := b.Snapshot()
	b.log.WithFields(logrus.Fields{
		"completed": state.Completed,
		"failed":    state.Failed,
	}).Info("batch finished")
	return nil
}

// processOne runs one task through mount, settle, rasterize and encode.
// The surface is closed on every return path.
func (b *Batch) processOne(runCtx context.Context, idx int) error {
	b.setTask(idx, StatusProcessing, progressStart, "")

	taskCtx, cancel := context.WithTimeout(runCtx, b.cfg.rasterTimeout)
	defer cancel()

	surface, err := b.mounter.Mount(taskCtx, b.markup[idx], b.size)
	if err != nil {
		return b.taskError(runCtx, taskCtx, err)
	}
	defer func() {
		if cerr := surface.Close(); cerr != nil {
			b.log.WithError(cerr).Warn("closing render surface")
		}
	}()
	b.setTask(idx, StatusProcessing, progressMounted, "")

	if err := sleepContext(runCtx, b.cfg.settleDelay); err != nil {
		return err
	}
	b.setTask(idx, StatusProcessing, progressSettled, "")

	raw, err := surface.Rasterize(taskCtx, RasterOptions{
		Width:  b.size.Width,
		Height: b.size.Height,
		Scale:  b.cfg.scale,
	})
	if err != nil {
		return b.taskError(runCtx, taskCtx, err)
	}
	b.setTask(idx, StatusProcessing, progressRastered, "")

	art, err := encodeArtifact(raw, b.cfg.encode)
	if err != nil {
		return err
	}
	b.complete(idx, art)
	return nil
}

// taskError maps a deadline on the task context to ErrRasterTimeout.
// Cancellation of the run is passed through unchanged.
func (b *Batch) taskError(runCtx, taskCtx context.Context, err error) error {
	if runCtx.Err() != nil {
		return runCtx.Err()
	}
	if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrRasterTimeout, b.cfg.rasterTimeout)
	}
	return err
}

func (b *Batch) waitIfPaused(ctx context.Context) error {
	logged := false
	for {
		b.mu.Lock()
		if !b.paused {
			b.mu.Unlock()
			return nil
		}
		ch := b.resumeCh
		b.mu.Unlock()

		if !logged {
			b.log.Info("batch paused")
			logged = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (b *Batch) stopped() error {
	b.log.Info("batch cancelled")
	return ErrBatchCancelled
}

// Pause stops the run before the next task starts. The in-flight task is
// allowed to finish. No-op when the batch is not running.
func (b *Batch) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running || b.paused {
		return
	}
	b.paused = true
	b.resumeCh = make(chan struct{})
}

// Resume lets a paused run continue.
func (b *Batch) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releasePause()
}

// Cancel stops the run: the in-flight task is abandoned at its next
// suspension point and returned to pending, and no further task starts.
// No-op when the batch is not running.
func (b *Batch) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	b.releasePause()
}

// releasePause must be called with b.mu held.
func (b *Batch) releasePause() {
	b.paused = false
	if b.resumeCh != nil {
		close(b.resumeCh)
		b.resumeCh = nil
	}
}

// RetryFailed returns every failed task to pending, clearing its progress
// and error, and reports how many were reset. Other tasks are untouched.
func (b *Batch) RetryFailed() int {
	var events []Event

	b.mu.Lock()
	for i := range b.tasks {
		t := &b.tasks[i]
		if t.Status != StatusFailed {
			continue
		}
		t.Status = StatusPending
		t.Progress = 0
		t.Error = ""
		events = append(events, b.taskEventLocked(i))
	}
	b.mu.Unlock()

	for _, ev := range events {
		b.emit(ev)
	}
	if len(events) > 0 {
		b.log.WithField("tasks", len(events)).Info("retrying failed tasks")
		b.emit(b.overallEvent())
	}
	return len(events)
}

// DownloadAll delivers the artifact of every completed task in order,
// waiting the download stagger between deliveries. It reports how many were
// delivered; failed deliveries are joined into the error.
func (b *Batch) DownloadAll(ctx context.Context, d Deliverer) (int, error) {
	type item struct {
		name string
		art  *Artifact
	}

	b.mu.Lock()
	var items []item
	for _, t := range b.tasks {
		if t.Status == StatusCompleted && t.Result != nil {
			items = append(items, item{name: b.filenameLocked(t), art: t.Result})
		}
	}
	b.mu.Unlock()

	delivered := 0
	var errs []error
	for i, it := range items {
		if i > 0 {
			if err := sleepContext(ctx, b.cfg.downloadStagger); err != nil {
				errs = append(errs, err)
				break
			}
		}
		if err := d.Deliver(ctx, it.name, it.art); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", it.name, err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// DownloadOne delivers the artifact of a single completed task.
func (b *Batch) DownloadOne(ctx context.Context, id string, d Deliverer) error {
	art, name, err := b.Artifact(id)
	if err != nil {
		return err
	}
	return d.Deliver(ctx, name, art)
}

// Artifact returns a completed task's artifact and its filename.
func (b *Batch) Artifact(id string) (*Artifact, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx, ok := b.index[id]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	t := b.tasks[idx]
	if t.Status != StatusCompleted || t.Result == nil {
		return nil, "", fmt.Errorf("%w: %q is %s", ErrTaskNotCompleted, t.Name, t.Status)
	}
	return t.Result, b.filenameLocked(t), nil
}

func (b *Batch) filenameLocked(t Task) string {
	return ArtifactFilename(b.subject, t.Name, b.cfg.suffix, t.Result.Format)
}

// Task returns a copy of one task.
func (b *Batch) Task(id string) (Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.index[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return b.tasks[idx], nil
}

// Snapshot returns a copy of the run state.
func (b *Batch) Snapshot() RunState {
	b.mu.Lock()
	defer b.mu.Unlock()

	tasks := make([]Task, len(b.tasks))
	copy(tasks, b.tasks)
	completed, terminal := b.countsLocked()

	state := RunState{
		ID:              b.id,
		Subject:         b.subject,
		Tasks:           tasks,
		CurrentIndex:    b.current,
		Running:         b.running,
		Paused:          b.paused,
		OverallProgress: overallProgress(terminal, len(b.tasks)),
		Completed:       completed,
		Failed:          terminal - completed,
		Total:           len(b.tasks),
	}
	return state
}

// Subscribe registers fn for every batch event and returns a function that
// removes it.
func (b *Batch) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

func (b *Batch) statusAt(idx int) TaskStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks[idx].Status
}

func (b *Batch) setTask(idx int, status TaskStatus, progress int, errMsg string) {
	b.mu.Lock()
	t := &b.tasks[idx]
	t.Status = status
	t.Progress = progress
	t.Error = errMsg
	if status == StatusProcessing {
		b.current = idx
	}
	ev := b.taskEventLocked(idx)
	b.mu.Unlock()

	b.emit(ev)
}

func (b *Batch) complete(idx int, art *Artifact) {
	b.mu.Lock()
	t := &b.tasks[idx]
	t.Status = StatusCompleted
	t.Progress = progressDone
	t.Error = ""
	t.Result = art
	name := t.Name
	ev := b.taskEventLocked(idx)
	b.mu.Unlock()

	b.log.WithFields(logrus.Fields{"task": name, "status": StatusCompleted}).Info("task completed")
	b.emit(ev)
	b.emit(b.overallEvent())
}

func (b *Batch) fail(idx int, err error) {
	b.mu.Lock()
	t := &b.tasks[idx]
	t.Status = StatusFailed
	t.Progress = 0
	t.Error = err.Error()
	t.Result = nil
	name := t.Name
	ev := b.taskEventLocked(idx)
	b.mu.Unlock()

	b.log.WithFields(logrus.Fields{"task": name, "status": StatusFailed}).WithError(err).Warn("task failed")
	b.emit(ev)
	b.emit(b.overallEvent())
}

// abandon returns a task interrupted by cancellation to pending without
// recording an error.
func (b *Batch) abandon(idx int) {
	b.setTask(idx, StatusPending, 0, "")
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func (b *Batch) taskEventLocked(idx int) Event {
	t := b.tasks[idx]
	return Event{
		Kind:     EventTask,
		BatchID:  b.id,
		TaskID:   t.ID,
		Status:   t.Status,
		Progress: t.Progress,
		Error:    t.Error,
	}
}

func (b *Batch) overallEvent() Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	completed, terminal := b.countsLocked()
	return Event{
		Kind:            EventOverall,
		BatchID:         b.id,
		Completed:       completed,
		Total:           len(b.tasks),
		OverallProgress: overallProgress(terminal, len(b.tasks)),
	}
}

func (b *Batch) emit(ev Event) {
	b.mu.Lock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (b *Batch) countsLocked() (completed, terminal int) {
	for _, t := range b.tasks {
		if t.Status == StatusCompleted {
			completed++
		}
		if t.Status.Terminal() {
			terminal++
		}
	}
	return completed, terminal
}

func overallProgress(terminal, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(terminal) / float64(total)
}

// sleepContext waits for d or until ctx is done. It reports a done context
// even when d is zero.
func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
