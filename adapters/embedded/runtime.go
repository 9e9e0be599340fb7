package embedded

import (
	"context"

	"github.com/Docker-Hunterpedia/StatusDock/core"
)

// FindArgs are the arguments of Runtime.Find and Runtime.Count
type FindArgs struct {
	Collection string
	Where      core.Where
	Sort       string
	Limit      int
	Page       int
	Depth      int
}

// FindByIDArgs are the arguments of Runtime.FindByID
type FindByIDArgs struct {
	Collection string
	ID         any
	Depth      int
}

// CreateArgs are the arguments of Runtime.Create
type CreateArgs struct {
	Collection string
	Data       core.Document
}

// UpdateArgs are the arguments of Runtime.Update
type UpdateArgs struct {
	Collection string
	ID         any
	Data       core.Document
}

// DeleteArgs are the arguments of Runtime.Delete
type DeleteArgs struct {
	Collection string
	ID         any
}

// FindGlobalArgs are the arguments of Runtime.FindGlobal
type FindGlobalArgs struct {
	Slug  string
	Depth int
}

// UpdateGlobalArgs are the arguments of Runtime.UpdateGlobal
type UpdateGlobalArgs struct {
	Slug string
	Data core.Document
}

// QueueJobArgs are the arguments of Runtime.QueueJob
type QueueJobArgs struct {
	Task  string
	Input map[string]any
}

// Runtime is the call surface of an in-process CMS. Results are already in
// canonical shape.
type Runtime interface {
	Find(ctx context.Context, args FindArgs) (*core.PaginatedResult, error)
	Count(ctx context.Context, args FindArgs) (int, error)
	FindByID(ctx context.Context, args FindByIDArgs) (core.Document, error)
	Create(ctx context.Context, args CreateArgs) (core.Document, error)
	Update(ctx context.Context, args UpdateArgs) (core.Document, error)
	Delete(ctx context.Context, args DeleteArgs) error
	FindGlobal(ctx context.Context, args FindGlobalArgs) (core.Document, error)
	UpdateGlobal(ctx context.Context, args UpdateGlobalArgs) (core.Document, error)
	QueueJob(ctx context.Context, args QueueJobArgs) error
}

// Opener constructs the runtime. It is called at most once per successful open.
type Opener func(ctx context.Context) (Runtime, error)
