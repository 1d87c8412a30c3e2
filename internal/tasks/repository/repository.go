package repository

import (
	"context"
	"errors"

	"github.com/taskpulse/taskpulse-go/internal/tasks"
)

// ErrNotFound is returned for missing tasks and for tasks owned by someone
// else; the two are indistinguishable to the caller.
var ErrNotFound = errors.New("task not found")

// Repository stores tasks. Every operation is keyed by owner.
type Repository interface {
	Create(ctx context.Context, t *tasks.Task) error
	Get(ctx context.Context, owner, id int64) (*tasks.Task, error)
	List(ctx context.Context, owner int64) ([]*tasks.Task, error)
	Update(ctx context.Context, owner, id int64, u tasks.TaskUpdate) (*tasks.Task, error)
	Delete(ctx context.Context, owner, id int64) error
}
