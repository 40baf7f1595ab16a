package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"manus-dashboard/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsg(content string) entity.ConversationMessage {
	return entity.ConversationMessage{Role: entity.RoleUser, Content: content}
}

func TestSession_CreditsNeverDecrease(t *testing.T) {
	s := NewSession()
	s.AddCredits(5)
	s.AddCredits(-3)
	s.AddCredits(0)
	s.AddCredits(5)
	assert.Equal(t, 10.0, s.TotalCredits())
}

func TestSession_RecordTaskCreatedClearsStaged(t *testing.T) {
	s := NewSession()
	s.StageFiles(entity.UploadedFile{ID: "f1", Name: "a.txt"}, entity.UploadedFile{ID: "f2", Name: "b.txt"})
	require.Len(t, s.StagedFiles(), 2)

	s.RecordTaskCreated("task-1", []string{"f1", "f2"})

	assert.Empty(t, s.StagedFiles())
	assert.Equal(t, 1, s.TaskCount())
	assert.Equal(t, "task-1", s.CurrentTaskID())
}

func TestSession_RecordTaskCreatedKeepsLaterFiles(t *testing.T) {
	s := NewSession()
	s.StageFiles(entity.UploadedFile{ID: "f1", Name: "a.txt"})
	s.StageFiles(entity.UploadedFile{ID: "f2", Name: "b.txt"})

	s.RecordTaskCreated("task-1", []string{"f1"})

	assert.Equal(t, []entity.UploadedFile{{ID: "f2", Name: "b.txt"}}, s.StagedFiles())

	s.RecordTaskCreated("task-2", nil)
	assert.Len(t, s.StagedFiles(), 1)
	assert.Equal(t, 2, s.TaskCount())
}

func TestSession_BeginTurnIsExclusive(t *testing.T) {
	s := NewSession()
	end, err := s.BeginTurn(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.BeginTurn(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	end()
	end2, err := s.BeginTurn(context.Background())
	require.NoError(t, err)
	end2()
}

func TestSession_AccessorsReturnCopies(t *testing.T) {
	s := NewSession()
	credits := 2.0
	s.AppendMessage(entity.ConversationMessage{Role: entity.RoleAssistant, Content: "hi", Files: []string{"a"}, Credits: &credits})

	msgs := s.Messages()
	msgs[0].Content = "changed"
	msgs[0].Files[0] = "changed"
	*msgs[0].Credits = 99
	credits = 42

	again := s.Messages()
	assert.Equal(t, "hi", again[0].Content)
	assert.Equal(t, []string{"a"}, again[0].Files)
	assert.Equal(t, 2.0, *again[0].Credits)
}

func TestSession_SnapshotAndReset(t *testing.T) {
	s := NewSession()
	saved := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return saved }

	_, ok := s.SnapshotAndReset()
	assert.False(t, ok, "empty conversation must not be saved")
	assert.Empty(t, s.History())

	s.AppendMessage(userMsg("first"))
	s.StageFiles(entity.UploadedFile{ID: "f1"})
	s.RecordTaskCreated("task-1", []string{"f1"})
	s.StageFiles(entity.UploadedFile{ID: "f2"})
	s.AddCredits(3)

	conv, ok := s.SnapshotAndReset()
	require.True(t, ok)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, saved, conv.SavedAt)
	assert.Equal(t, 1, conv.TaskCount)
	assert.Equal(t, 3.0, conv.CreditsUsed)
	require.Len(t, conv.Messages, 1)

	assert.Empty(t, s.Messages())
	assert.Empty(t, s.StagedFiles())
	assert.Empty(t, s.CurrentTaskID())
	assert.Equal(t, 3.0, s.TotalCredits())
	assert.Equal(t, 1, s.TaskCount())
	assert.Len(t, s.History(), 1)
}

func TestSession_Restore(t *testing.T) {
	s := NewSession()
	s.AppendMessage(userMsg("old"))
	old, ok := s.SnapshotAndReset()
	require.True(t, ok)

	s.AppendMessage(userMsg("current"))
	s.RecordTaskCreated("task-7", nil)

	require.NoError(t, s.Restore(old.ID))

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "old", msgs[0].Content)
	assert.Empty(t, s.CurrentTaskID())

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "current", history[1].Messages[0].Content)
}

func TestSession_RestoreUnknown(t *testing.T) {
	s := NewSession()
	s.AppendMessage(userMsg("keep"))

	err := s.Restore("missing")
	var nf *entity.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "conversation", nf.Resource)
	assert.Len(t, s.Messages(), 1)
	assert.Empty(t, s.History())
}

func TestSession_Stats(t *testing.T) {
	s := NewSession()
	s.AppendMessage(userMsg("a"))
	s.StageFiles(entity.UploadedFile{ID: "f"})
	s.AddCredits(1.5)

	st := s.Stats()
	assert.Equal(t, s.ID(), st.SessionID)
	assert.Equal(t, 1, st.Messages)
	assert.Equal(t, 1, st.StagedFiles)
	assert.Equal(t, 1.5, st.TotalCredits)
	assert.Contains(t, s.String(), "1.50 credits")
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendMessage(userMsg("x"))
			s.AddCredits(1)
			_ = s.Stats()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Messages(), 20)
	assert.Equal(t, 20.0, s.TotalCredits())
}
