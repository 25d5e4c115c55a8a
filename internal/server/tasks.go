package server

import (
	"sync"

	"github.com/google/uuid"
)

// Task states.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// TaskStatus is the externally visible state of a background summarization.
type TaskStatus struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Progress int    `json:"progress"`
	Result   any    `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// taskStore keeps task states in memory for the lifetime of the process.
type taskStore struct {
	mu    sync.RWMutex
	tasks map[string]*TaskStatus
}

func newTaskStore() *taskStore {
	return &taskStore{tasks: make(map[string]*TaskStatus)}
}

func (s *taskStore) create(message string) TaskStatus {
	t := &TaskStatus{TaskID: uuid.NewString(), Status: TaskPending, Message: message}
	s.mu.Lock()
	s.tasks[t.TaskID] = t
	s.mu.Unlock()
	return *t
}

func (s *taskStore) update(id string, fn func(t *TaskStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		fn(t)
	}
}

func (s *taskStore) get(id string) (TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return TaskStatus{}, false
	}
	return *t, true
}
