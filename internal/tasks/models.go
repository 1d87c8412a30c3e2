package tasks

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Task is one item of a user's list. UserID is the owner and is set by the
// server from the credential, never by the caller.
type Task struct {
	ID          int64     `json:"id" bson:"id"`
	Title       string    `json:"title" bson:"title"`
	Description *string   `json:"description" bson:"description,omitempty"`
	IsCompleted bool      `json:"is_completed" bson:"is_completed"`
	UserID      int64     `json:"user_id" bson:"user_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// TaskCreate is the body of a create request.
type TaskCreate struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsCompleted bool    `json:"is_completed"`
}

// TaskUpdate is a partial update; nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// TaskPatch sets the completion flag.
type TaskPatch struct {
	IsCompleted bool `json:"is_completed"`
}

var validate = validator.New()

func (c TaskCreate) Validate() error { return validate.Struct(c) }

func (u TaskUpdate) Validate() error { return validate.Struct(u) }

// Apply copies the set fields of u onto t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		d := *u.Description
		t.Description = &d
	}
	if u.IsCompleted != nil {
		t.IsCompleted = *u.IsCompleted
	}
}
