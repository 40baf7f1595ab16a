package userinteraction

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"manus-dashboard/internal/domain/entity"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsole(in string) (*Console, *bytes.Buffer) {
	color.NoColor = true
	out := new(bytes.Buffer)
	return NewPlainConsole(strings.NewReader(in), out), out
}

func TestConsole_ReadLine(t *testing.T) {
	c, out := newTestConsole("  hello world \nlast")

	line, err := c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", line)
	assert.Equal(t, "> ", out.String())

	line, err = c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = c.ReadLine("> ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestConsole_ShowUpload(t *testing.T) {
	c, out := newTestConsole("")
	ctx := context.Background()

	c.ShowUpload(ctx, 1, 3, entity.UploadRecord{Filename: "a.txt", FileID: "file-1", Size: 2048, Status: entity.UploadStatusUploaded})
	c.ShowUpload(ctx, 2, 3, entity.UploadRecord{Filename: "b.bin", Status: entity.UploadStatusRejected, Reason: "file type .bin is not supported"})
	c.ShowUpload(ctx, 3, 3, entity.UploadRecord{Filename: "c.txt", Status: entity.UploadStatusFailed, Reason: "register file: boom"})

	got := out.String()
	assert.Contains(t, got, "[1/3] a.txt (2.0 KB) → file-1")
	assert.Contains(t, got, "[2/3] b.bin rejected: file type .bin is not supported")
	assert.Contains(t, got, "[3/3] c.txt failed: register file: boom")
}

func TestConsole_ShowReply(t *testing.T) {
	c, out := newTestConsole("")
	credits := 2.0

	c.ShowReply(entity.ConversationMessage{
		Role:        entity.RoleAssistant,
		Content:     "**Done.**",
		TaskURL:     "https://manus.im/app/t1",
		Credits:     &credits,
		OutputFiles: []string{"report.pdf"},
	})

	got := out.String()
	assert.Contains(t, got, "**Done.**")
	assert.Contains(t, got, "Files: report.pdf")
	assert.Contains(t, got, "https://manus.im/app/t1")
	assert.Contains(t, got, "2.00 credits")
}

func TestConsole_ShowPollAndErrors(t *testing.T) {
	c, out := newTestConsole("")

	c.ShowTaskCreated(context.Background(), &entity.Task{ID: "task-1"})
	c.ShowPoll(context.Background(), "task-1", entity.TaskStatusRunning, 2, 6400*time.Millisecond)
	c.ShowError(errors.New("remote returned 502"))

	got := out.String()
	assert.Contains(t, got, "Task task-1 created")
	assert.Contains(t, got, "running (poll 2, 6s)")
	assert.Contains(t, got, "Error: remote returned 502")
}

func TestConsole_ShowTasks(t *testing.T) {
	c, out := newTestConsole("")
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	c.ShowTasks([]entity.Task{{
		ID:        "task-1",
		Status:    entity.TaskStatusCompleted,
		CreatedAt: now.Add(-3 * time.Hour).Unix(),
		Metadata:  map[string]any{entity.MetadataCreditUsage: 1.5},
	}}, now)

	got := out.String()
	assert.Contains(t, got, "task-1")
	assert.Contains(t, got, "1.50")
	assert.Contains(t, got, "3h ago")
	assert.Contains(t, got, "Untitled")
}

func TestConsole_EmptyLists(t *testing.T) {
	c, out := newTestConsole("")
	c.ShowTasks(nil, time.Now())
	c.ShowRemoteFiles(nil, entity.DefaultFileExpiry, time.Now())
	c.ShowStagedFiles(nil)
	c.ShowHistory(nil)

	assert.Equal(t, "No tasks.\nNo files.\nNo files staged.\nNo saved conversations.\n", out.String())
}
