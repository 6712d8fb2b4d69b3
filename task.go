package posterkit

// TaskStatus is the lifecycle state of one batch task.
type TaskStatus string

// Task statuses. StatusPaused is advisory: pausing is a run-level flag and
// no task is ever parked in it by Batch.
const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusPaused     TaskStatus = "paused"
)

// Terminal reports whether the status ends a processing run.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress milestones within one task.
const (
	progressStart    = 0
	progressMounted  = 25
	progressSettled  = 50
	progressRastered = 75
	progressDone     = 100
)

// Task is one variant's render state. Result is set only when the task is
// completed.
type Task struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
	Error    string     `json:"error,omitempty"`
	Result   *Artifact  `json:"-"`
}

// Artifact is the encoded output of a completed task.
type Artifact struct {
	Data      []byte `json:"-"`
	URL       string `json:"-"`
	Format    Format `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Thumbnail []byte `json:"-"`
}

// EventKind discriminates batch events.
type EventKind string

// Event kinds.
const (
	EventTask    EventKind = "task"
	EventOverall EventKind = "overall"
)

// Event is delivered to subscribers on every task transition or progress
// step (EventTask) and after every terminal transition (EventOverall).
type Event struct {
	Kind    EventKind `json:"kind"`
	BatchID string    `json:"batchId"`

	TaskID   string     `json:"taskId,omitempty"`
	Status   TaskStatus `json:"status,omitempty"`
	Progress int        `json:"progress"`
	Error    string     `json:"error,omitempty"`

	Completed       int     `json:"completed"`
	Total           int     `json:"total"`
	OverallProgress float64 `json:"overallProgress"`
}

// RunState is a point-in-time copy of a batch.
type RunState struct {
	ID              string  `json:"id"`
	Subject         string  `json:"subject"`
	Tasks           []Task  `json:"tasks"`
	CurrentIndex    int     `json:"currentIndex"`
	Running         bool    `json:"running"`
	Paused          bool    `json:"paused"`
	OverallProgress float64 `json:"overallProgress"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	Total           int     `json:"total"`
}
