package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(id string, started time.Time) Run {
	return Run{
		ID:         id,
		Subject:    "Spring Gala",
		PosterType: "invitation",
		Outcome:    "completed",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Total:      2,
		Completed:  1,
		Failed:     1,
		Tasks: []TaskRecord{
			{ID: "t1", Name: "Alice", Status: "completed", Artifact: "Spring Gala_Alice_poster.png"},
			{ID: "t2", Name: "Bob", Status: "failed", Error: "rasterization timed out"},
		},
	}
}

func TestStore_RecordAndGet(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	started := time.UnixMilli(1_760_000_000_000)

	if err := s.Record(ctx, sampleRun("run-1", started)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Subject != "Spring Gala" || got.Completed != 1 || got.Failed != 1 {
		t.Errorf("run = %+v", got)
	}
	if !got.StartedAt.Equal(started) || !got.FinishedAt.Equal(started.Add(3*time.Second)) {
		t.Errorf("times = %v, %v", got.StartedAt, got.FinishedAt)
	}
	if len(got.Tasks) != 2 || got.Tasks[0].Name != "Alice" || got.Tasks[1].Error != "rasterization timed out" {
		t.Errorf("tasks = %+v", got.Tasks)
	}
}

func TestStore_RecordReplaces(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	run := sampleRun("run-1", time.Now())

	if err := s.Record(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.Failed, run.Completed = 0, 2
	run.Tasks = run.Tasks[:1]
	if err := s.Record(ctx, run); err != nil {
		t.Fatalf("second Record() error = %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Completed != 2 || len(got.Tasks) != 1 {
		t.Errorf("run not replaced: %+v", got)
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	base := time.UnixMilli(1_760_000_000_000)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.Record(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("List(2) = %+v", runs)
	}
	if runs[0].Tasks != nil {
		t.Error("List() should not load tasks")
	}

	all, err := s.List(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("List(0) = %d runs, %v", len(all), err)
	}
}

func TestStore_Errors(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRunNotFound", err)
	}
	if err := s.Record(ctx, Run{}); !errors.Is(err, ErrEmptyRunID) {
		t.Errorf("Record(empty) error = %v, want ErrEmptyRunID", err)
	}
}

func TestStore_DuplicateTaskRollsBack(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	run := sampleRun("run-1", time.Now())
	run.Tasks[1].ID = run.Tasks[0].ID

	if err := s.Record(ctx, run); err == nil {
		t.Fatal("Record() with duplicate task ids error = nil")
	}
	if _, err := s.Get(ctx, "run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("partial run persisted: %v", err)
	}
}

func TestOpen_Persists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "h.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Record(context.Background(), sampleRun("r", time.Now())); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.Get(context.Background(), "r"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}
