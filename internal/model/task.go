package model

import "fmt"

// TaskPriority is the urgency of a follow-up task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Rank orders priorities from most to least urgent (0 = urgent).
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

// TaskAction is a state change applied to a task.
type TaskAction string

const (
	TaskComplete TaskAction = "complete"
	// TaskDefer pushes the due date two days out.
	TaskDefer TaskAction = "defer"
	TaskUndo  TaskAction = "undo"
)

// Validate rejects actions the API does not accept.
func (a TaskAction) Validate() error {
	switch a {
	case TaskComplete, TaskDefer, TaskUndo:
		return nil
	}
	return fmt.Errorf("unknown task action %q", string(a))
}

// Task is a follow-up item, usually linked to an application.
type Task struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Type             string       `json:"type,omitempty"`
	Priority         TaskPriority `json:"priority"`
	DueAt            *Timestamp   `json:"due_at,omitempty"`
	CompletedAt      *Timestamp   `json:"completed_at,omitempty"`
	ApplicationID    string       `json:"application_id,omitempty"`
	ApplicationTitle string       `json:"application_title,omitempty"`
}

// Done reports whether the task has been completed.
func (t Task) Done() bool {
	return t.CompletedAt != nil
}

// SplitTasks partitions tasks into open and completed, keeping order.
func SplitTasks(tasks []Task) (open, done []Task) {
	for _, t := range tasks {
		if t.Done() {
			done = append(done, t)
		} else {
			open = append(open, t)
		}
	}
	return open, done
}
