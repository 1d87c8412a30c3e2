package service

import (
	"context"
	"errors"

	"github.com/taskpulse/taskpulse-go/internal/tasks"
	"github.com/taskpulse/taskpulse-go/internal/tasks/repository"
)

var (
	ErrNotFound = errors.New("not found")
)

// Service defines the task operations used by the handler layer. The owner
// always comes from the verified credential.
type Service interface {
	Create(ctx context.Context, owner int64, in tasks.TaskCreate) (*tasks.Task, error)
	Get(ctx context.Context, owner, id int64) (*tasks.Task, error)
	List(ctx context.Context, owner int64) ([]*tasks.Task, error)
	Update(ctx context.Context, owner, id int64, in tasks.TaskUpdate) (*tasks.Task, error)
	SetCompleted(ctx context.Context, owner, id int64, completed bool) (*tasks.Task, error)
	Delete(ctx context.Context, owner, id int64) error
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

// New returns a Service over any repository.
func New(repo repository.Repository) Service {
	return &service{repo: repo}
}

type service struct {
	repo repository.Repository
}

func mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *service) Create(ctx context.Context, owner int64, in tasks.TaskCreate) (*tasks.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := &tasks.Task{Title: in.Title, Description: in.Description, IsCompleted: in.IsCompleted, UserID: owner}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Get(ctx context.Context, owner, id int64) (*tasks.Task, error) {
	t, err := s.repo.Get(ctx, owner, id)
	return t, mapErr(err)
}

func (s *service) List(ctx context.Context, owner int64) ([]*tasks.Task, error) {
	return s.repo.List(ctx, owner)
}

func (s *service) Update(ctx context.Context, owner, id int64, in tasks.TaskUpdate) (*tasks.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.repo.Update(ctx, owner, id, in)
	return t, mapErr(err)
}

func (s *service) SetCompleted(ctx context.Context, owner, id int64, completed bool) (*tasks.Task, error) {
	t, err := s.repo.Update(ctx, owner, id, tasks.TaskUpdate{IsCompleted: &completed})
	return t, mapErr(err)
}

func (s *service) Delete(ctx context.Context, owner, id int64) error {
	return mapErr(s.repo.Delete(ctx, owner, id))
}
