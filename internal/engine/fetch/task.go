package fetch

import (
	"time"

	"github.com/google/uuid"
)

type TaskState string

const (
	TaskPending  TaskState = "pending"
	TaskResolved TaskState = "resolved"
	TaskFailed   TaskState = "failed"
)

// Task is one network resolution shared by every slot waiting on its URL.
type Task struct {
	ID          uuid.UUID
	URL         string
	State       TaskState
	Cached      bool
	Err         error
	CreatedAt   time.Time
	CompletedAt time.Time
}

func newTask(url string) *Task {
	return &Task{
		ID:        uuid.New(),
		URL:       url,
		State:     TaskPending,
		CreatedAt: time.Now(),
	}
}

func (t *Task) complete(err error, cached bool) {
	t.CompletedAt = time.Now()
	t.Cached = cached
	if err != nil {
		t.State = TaskFailed
		t.Err = err
		return
	}
	t.State = TaskResolved
}
