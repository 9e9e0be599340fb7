package localcms

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Docker-Hunterpedia/StatusDock/adapters/embedded"
	"github.com/Docker-Hunterpedia/StatusDock/core"
)

// Job states
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Job is a queued unit of background work
type Job struct {
	ID        string `db:"id" json:"id"`
	Task      string `db:"task" json:"task"`
	Input     string `db:"input" json:"input"`
	Status    string `db:"status" json:"status"`
	Error     string `db:"error" json:"error,omitempty"`
	CreatedAt string `db:"created_at" json:"createdAt"`
	UpdatedAt string `db:"updated_at" json:"updatedAt"`
}

// QueueJob stores a job for a registered task
func (s *Store) QueueJob(ctx context.Context, args embedded.QueueJobArgs) error {
	if _, ok := s.tasks[args.Task]; !ok {
		return fmt.Errorf("unknown task %q", args.Task)
	}
	input, err := json.Marshal(args.Input)
	if err != nil {
		return fmt.Errorf("failed to encode job input: %w", err)
	}

	now := s.timestamp()
	id := uuid.NewString()
	_, err = s.execContext(ctx,
		"INSERT INTO jobs (id, task, input, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, args.Task, string(input), JobQueued, now, now)
	if err != nil {
		return fmt.Errorf("failed to queue job: %w", err)
	}
	s.log.Debug("job queued").Str("job", id).Str("task", args.Task).Send()
	return nil
}

// Jobs lists jobs, optionally filtered by status, oldest first
func (s *Store) Jobs(ctx context.Context, status string) ([]Job, error) {
	query := "SELECT id, task, input, status, error, created_at, updated_at FROM jobs"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at, id"

	var jobs []Job
	if err := s.selectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// RunPending executes every queued job on the worker pool and waits for them.
// Each job is claimed before it runs, so concurrent runners on one database
// never run the same job twice. It returns the number of jobs that completed
// successfully.
func (s *Store) RunPending(ctx context.Context) (int, error) {
	jobs, err := s.Jobs(ctx, JobQueued)
	if err != nil {
		return 0, err
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	for _, job := range jobs {
		job := job
		claimed, err := s.claimJob(ctx, job)
		if err != nil {
			wg.Wait()
			return completed, err
		}
		if !claimed {
			continue
		}
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			runErr := s.runJob(ctx, job)
			if err := s.finishJob(ctx, job, runErr); err != nil {
				s.log.Error("failed to record job result").Str("job", job.ID).Err(err).Send()
				return
			}
			if runErr == nil {
				mu.Lock()
				completed++
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			if _, err := s.execContext(ctx, "UPDATE jobs SET status = ? WHERE id = ?", JobQueued, job.ID); err != nil {
				s.log.Error("failed to requeue job").Str("job", job.ID).Err(err).Send()
			}
			wg.Wait()
			return completed, fmt.Errorf("failed to schedule job %s: %w", job.ID, submitErr)
		}
	}
	wg.Wait()
	return completed, nil
}

// claimJob moves a queued job to running. It reports false when another
// runner got there first.
func (s *Store) claimJob(ctx context.Context, job Job) (bool, error) {
	result, err := s.execContext(ctx,
		"UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		JobRunning, s.timestamp(), job.ID, JobQueued)
	if err != nil {
		return false, fmt.Errorf("failed to claim job %s: %w", job.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim job %s: %w", job.ID, err)
	}
	return affected == 1, nil
}

func (s *Store) runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", job.Task, r)
		}
	}()

	task, ok := s.tasks[job.Task]
	if !ok || task.Handler == nil {
		return fmt.Errorf("no handler registered for task %q", job.Task)
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(job.Input), &input); err != nil {
		return fmt.Errorf("failed to decode job input: %w", err)
	}
	return task.Handler(ctx, input)
}

func (s *Store) finishJob(ctx context.Context, job Job, runErr error) error {
	status, message := JobCompleted, ""
	if runErr != nil {
		status, message = JobFailed, runErr.Error()
		s.log.Warn("job failed").Str("job", job.ID).Str("task", job.Task).Err(runErr).Send()
	}
	_, err := s.execContext(ctx,
		"UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?",
		status, message, s.timestamp(), job.ID)
	return err
}

// Tasks returns the registered tasks ordered by slug
func (s *Store) Tasks() []core.Task {
	tasks := make([]core.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Slug < tasks[j].Slug })
	return tasks
}
