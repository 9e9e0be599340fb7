package core

import "context"

// TaskHandler processes the input of one queued job
type TaskHandler func(ctx context.Context, input map[string]any) error

// Task represents a background task that jobs can be queued for
type Task struct {
	// Slug is the unique task identifier used when queueing jobs
	Slug string `json:"slug"`

	// Title is a human readable name
	Title string `json:"title"`

	// Handler runs when a queued job for this task is executed
	Handler TaskHandler `json:"-"`
}

// TaskBuilder provides a fluent API for configuring tasks
type TaskBuilder struct {
	task *Task
}

// NewTask creates a new task builder
func NewTask(slug string, handler TaskHandler) *TaskBuilder {
	return &TaskBuilder{
		task: &Task{
			Slug:    slug,
			Title:   generateDisplayName(slug),
			Handler: handler,
		},
	}
}

// WithTitle sets the task title
func (tb *TaskBuilder) WithTitle(title string) *TaskBuilder {
	tb.task.Title = title
	return tb
}

// Build returns the built task
func (tb *TaskBuilder) Build() Task {
	return *tb.task
}
