// Package tasks is the task resource: the model, the subject-scoped API
// client and the server-side storage.
package tasks

import (
	"context"
	"fmt"
	"net/http"
)

// Dispatcher is the part of the request gateway the task client needs.
type Dispatcher interface {
	ScopedPath(ctx context.Context, resourceRoot string) (string, error)
	Dispatch(ctx context.Context, method, path string, body, out interface{}) error
}

// Client calls the task endpoints. Every URL is derived from the stored
// credential's subject; no method takes a user id.
type Client struct {
	d Dispatcher
}

func NewClient(d Dispatcher) *Client {
	return &Client{d: d}
}

func (c *Client) path(ctx context.Context, id *int64) (string, error) {
	p, err := c.d.ScopedPath(ctx, "tasks")
	if err != nil {
		return "", err
	}
	if id != nil {
		p = fmt.Sprintf("%s/%d", p, *id)
	}
	return p, nil
}

func (c *Client) List(ctx context.Context) ([]Task, error) {
	p, err := c.path(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := []Task{}
	if err := c.d.Dispatch(ctx, http.MethodGet, p, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*Task, error) {
	p, err := c.path(ctx, &id)
	if err != nil {
		return nil, err
	}
	var t Task
	if err := c.d.Dispatch(ctx, http.MethodGet, p, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create validates in and posts it.
func (c *Client) Create(ctx context.Context, in TaskCreate) (*Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := c.path(ctx, nil)
	if err != nil {
		return nil, err
	}
	var t Task
	if err := c.d.Dispatch(ctx, http.MethodPost, p, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update sends a partial update with PUT.
func (c *Client) Update(ctx context.Context, id int64, in TaskUpdate) (*Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := c.path(ctx, &id)
	if err != nil {
		return nil, err
	}
	var t Task
	if err := c.d.Dispatch(ctx, http.MethodPut, p, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Toggle sets the completion flag with PATCH.
func (c *Client) Toggle(ctx context.Context, id int64, completed bool) (*Task, error) {
	p, err := c.path(ctx, &id)
	if err != nil {
		return nil, err
	}
	var t Task
	if err := c.d.Dispatch(ctx, http.MethodPatch, p, TaskPatch{IsCompleted: completed}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	p, err := c.path(ctx, &id)
	if err != nil {
		return err
	}
	return c.d.Dispatch(ctx, http.MethodDelete, p, nil, nil)
}
