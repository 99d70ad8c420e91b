package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// TaskFileName is the name of the task file inside the workspace.
const TaskFileName = "_active_tasks.json"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is one unit of work tracked by the coordinating agent.
type Task struct {
	Description string `json:"description"`
	Status      Status `json:"status"`
}

var (
	// ErrNoActiveTasks is returned when the task file does not exist.
	ErrNoActiveTasks = errors.New("no active task list found")
	// ErrEmptyTaskList is returned when a task list has no entries.
	ErrEmptyTaskList = errors.New("task list cannot be empty")
	// ErrInvalidTaskList is returned when the task list encoding is malformed.
	ErrInvalidTaskList = errors.New("invalid task list")
	// ErrInvalidStatus is returned for statuses outside pending/in_progress/completed.
	ErrInvalidStatus = errors.New("status must be 'pending', 'in_progress', or 'completed'")
	// ErrIndexOutOfRange is returned for task indexes outside the list.
	ErrIndexOutOfRange = errors.New("task index out of range")
)

// ParseTaskList decodes a JSON array whose entries are either bare strings or
// objects with a string "description" field. Every task starts pending.
func ParseTaskList(raw string) ([]Task, error) {
	var decoded any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTaskList, err)
	}

	entries, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: tasks must be a JSON array", ErrInvalidTaskList)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyTaskList
	}

	tasks := make([]Task, 0, len(entries))
	for i, entry := range entries {
		var desc string
		switch v := entry.(type) {
		case string:
			desc = v
		case map[string]any:
			d, ok := v["description"].(string)
			if !ok {
				return nil, fmt.Errorf("%w: task %d must have a 'description' field or be a string", ErrInvalidTaskList, i)
			}
			desc = d
		default:
			return nil, fmt.Errorf("%w: task %d must have a 'description' field or be a string", ErrInvalidTaskList, i)
		}
		tasks = append(tasks, Task{Description: desc, Status: StatusPending})
	}

	return tasks, nil
}

// Progress summarizes a task list.
type Progress struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Summarize counts tasks per status.
func Summarize(tasks []Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			p.Pending++
		case StatusInProgress:
			p.InProgress++
		case StatusCompleted:
			p.Completed++
		}
	}
	return p
}

// TaskStore is the single writer of a task file. Writes are serialized by a
// mutex and replace the file atomically; every read goes to disk so external
// edits are observed.
type TaskStore struct {
	path string
	mu   sync.Mutex
}

// NewTaskStore creates a store for the task file at path.
func NewTaskStore(path string) *TaskStore {
	return &TaskStore{path: path}
}

// Path returns the task file path.
func (s *TaskStore) Path() string { return s.path }

// Create replaces the task list with tasks, all reset to pending.
func (s *TaskStore) Create(tasks []Task) ([]Task, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyTaskList
	}

	normalized := make([]Task, len(tasks))
	for i, t := range tasks {
		normalized[i] = Task{Description: t.Description, Status: StatusPending}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLocked(normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// CreateFromJSON parses raw with ParseTaskList and stores the result.
func (s *TaskStore) CreateFromJSON(raw string) ([]Task, error) {
	tasks, err := ParseTaskList(raw)
	if err != nil {
		return nil, err
	}
	return s.Create(tasks)
}

// Update sets the status of the task at index after re-reading the file. On
// validation failure the file is left untouched.
func (s *TaskStore) Update(index int, status Status) (Task, []Task, error) {
	if !status.Valid() {
		return Task{}, nil, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.readLocked()
	if err != nil {
		return Task{}, nil, err
	}
	if tasks == nil {
		return Task{}, nil, ErrNoActiveTasks
	}
	if index < 0 || index >= len(tasks) {
		return Task{}, nil, fmt.Errorf("%w: task index %d out of range (0-%d)", ErrIndexOutOfRange, index, len(tasks)-1)
	}

	tasks[index].Status = status
	if err := s.writeLocked(tasks); err != nil {
		return Task{}, nil, err
	}
	return tasks[index], tasks, nil
}

// List returns the current tasks. A missing file yields an empty list.
func (s *TaskStore) List() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		return []Task{}, nil
	}
	return tasks, nil
}

// Exists reports whether a task file is present.
func (s *TaskStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the task file.
func (s *TaskStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// readLocked returns nil (and no error) when the file does not exist.
func (s *TaskStore) readLocked() ([]Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read task file: %w", err)
	}

	tasks := []Task{}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode task file: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) writeLocked(tasks []Task) error {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task file: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}
