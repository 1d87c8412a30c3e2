package tasks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskCreateValidate(t *testing.T) {
	require.NoError(t, TaskCreate{Title: "buy milk"}.Validate())
	require.Error(t, TaskCreate{}.Validate())
	require.Error(t, TaskCreate{Title: strings.Repeat("t", 256)}.Validate())
	require.NoError(t, TaskCreate{Title: strings.Repeat("t", 255)}.Validate())

	d := strings.Repeat("d", 1000)
	require.NoError(t, TaskCreate{Title: "x", Description: &d}.Validate())
	d += "d"
	require.Error(t, TaskCreate{Title: "x", Description: &d}.Validate())
}

func TestTaskUpdateApply(t *testing.T) {
	desc := "old"
	task := &Task{Title: "a", Description: &desc}

	TaskUpdate{}.Apply(task)
	require.Equal(t, "a", task.Title)
	require.Equal(t, "old", *task.Description)

	title, done, newDesc := "b", true, "new"
	u := TaskUpdate{Title: &title, IsCompleted: &done, Description: &newDesc}
	require.NoError(t, u.Validate())
	u.Apply(task)
	require.Equal(t, "b", task.Title)
	require.True(t, task.IsCompleted)
	require.Equal(t, "new", *task.Description)

	// the task keeps its own copy
	newDesc = "changed"
	require.Equal(t, "new", *task.Description)
}
