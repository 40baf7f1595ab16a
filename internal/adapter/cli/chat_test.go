package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"manus-dashboard/internal/application/port/input"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"
	"manus-dashboard/internal/infrastructure/userinteraction"
	"manus-dashboard/internal/testutil"
	"manus-dashboard/internal/usecase/conversation"
	"manus-dashboard/internal/usecase/taskrunner"
	"manus-dashboard/internal/usecase/uploader"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestREPL(t *testing.T, in string) (*repl, *testutil.FakeManus, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	manus := testutil.NewFakeManus()
	out := new(bytes.Buffer)
	console := userinteraction.NewPlainConsole(strings.NewReader(in), out)
	runner := taskrunner.New(manus, console, nil, taskrunner.Config{PollInterval: time.Millisecond})
	return &repl{
		chat:     conversation.New(runner, nil, input.SendRequest{AgentProfile: entity.AgentProfileSpeed, TimeoutSeconds: 60}),
		uploader: uploader.New(manus, console, nil, uploader.Config{MaxFileSize: 1024}),
		sess:     service.NewSession(),
		console:  console,
		now:      func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	}, manus, out
}

func TestREPL_ChatAndQuit(t *testing.T) {
	r, manus, out := newTestREPL(t, "Summarize this text\n/quit\nnever read\n")
	manus.Script(testutil.Completed("Done.", 2))

	require.NoError(t, r.loop(context.Background()))

	assert.Contains(t, out.String(), "Done.")
	assert.Contains(t, out.String(), "2.00 credits")
	assert.Len(t, r.sess.Messages(), 2)
	assert.Len(t, manus.Created, 1)
}

func TestREPL_EOFEndsLoop(t *testing.T) {
	r, _, _ := newTestREPL(t, "/stats\n")
	assert.NoError(t, r.loop(context.Background()))
}

func TestREPL_AttachStagesFiles(t *testing.T) {
	r, manus, out := newTestREPL(t, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	manus.Script(testutil.Completed("ok", 1))

	r.handle(context.Background(), "/attach "+path)
	require.Len(t, r.sess.StagedFiles(), 1)
	assert.Contains(t, out.String(), "1 of 1 files staged")

	r.handle(context.Background(), "/files")
	assert.Contains(t, out.String(), "notes.txt")

	r.handle(context.Background(), "read it")
	require.Len(t, manus.Created, 1)
	assert.Len(t, manus.Created[0].FileIDs, 1)
	assert.Empty(t, r.sess.StagedFiles())
	assert.Equal(t, []string{"notes.txt"}, r.sess.Messages()[0].Files)
}

func TestREPL_AttachMissingFile(t *testing.T) {
	r, manus, out := newTestREPL(t, "")
	r.handle(context.Background(), "/attach /does/not/exist.txt")
	assert.Contains(t, out.String(), "Error: read /does/not/exist.txt")
	assert.Empty(t, manus.Registered)
}

func TestREPL_NewHistoryLoad(t *testing.T) {
	r, _, out := newTestREPL(t, "")
	r.sess.AppendMessage(entity.ConversationMessage{Role: entity.RoleUser, Content: "first chat"})

	r.handle(context.Background(), "/new")
	assert.Empty(t, r.sess.Messages())
	assert.Contains(t, out.String(), "Saved conversation")

	r.handle(context.Background(), "/history")
	assert.Contains(t, out.String(), "first chat")

	r.handle(context.Background(), "/load 1")
	msgs := r.sess.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "first chat", msgs[0].Content)

	r.handle(context.Background(), "/load 99")
	assert.Contains(t, out.String(), "conversation 99 not found")
}

func TestREPL_Export(t *testing.T) {
	r, _, out := newTestREPL(t, "")
	r.sess.AppendMessage(entity.ConversationMessage{Role: entity.RoleUser, Content: "hello"})
	path := filepath.Join(t.TempDir(), "chat.txt")

	r.handle(context.Background(), "/export txt "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "USER: hello\n\n", string(data))
	assert.Contains(t, out.String(), "Exported 1 messages")

	r.handle(context.Background(), "/export pdf")
	assert.Contains(t, out.String(), "unsupported export format")
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, _, out := newTestREPL(t, "")
	assert.False(t, r.handle(context.Background(), "/dance"))
	assert.Contains(t, out.String(), "unknown command /dance")
	assert.True(t, r.handle(context.Background(), "/exit"))
}

func TestTaskFilterFlags(t *testing.T) {
	t.Cleanup(func() { taskLimit, taskStatuses, taskQuery = 0, nil, "" })

	taskStatuses = []string{"completed", "pending"}
	taskQuery = "report"
	f, err := taskFilter(50)
	require.NoError(t, err)
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, []entity.TaskStatus{entity.TaskStatusCompleted, entity.TaskStatusPendingInput}, f.Statuses)
	assert.Equal(t, "report", f.Query)

	taskLimit = 101
	_, err = taskFilter(50)
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "limit", verr.Field)
}
