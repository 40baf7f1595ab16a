package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"manus-dashboard/internal/domain/entity"

	"github.com/google/uuid"
)

// Session holds the state of one interactive user session. It lives only as long
// as the process; every accessor returns copies so callers never share slices with
// the session.
type Session struct {
	mu sync.Mutex
	// turn admits one chat turn at a time.
	turn chan struct{}

	id            string
	messages      []entity.ConversationMessage
	staged        []entity.UploadedFile
	totalCredits  float64
	taskCount     int
	currentTaskID string
	history       []entity.Conversation

	now func() time.Time
}

func NewSession() *Session {
	return &Session{
		id:   uuid.NewString(),
		turn: make(chan struct{}, 1),
		now:  time.Now,
	}
}

// BeginTurn waits until no other turn is running on the session. The returned
// func ends the turn and must be called exactly once.
func (s *Session) BeginTurn(ctx context.Context) (func(), error) {
	select {
	case s.turn <- struct{}{}:
		return func() { <-s.turn }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) AppendMessage(msg entity.ConversationMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, cloneMessage(msg))
}

func (s *Session) Messages() []entity.ConversationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.messages)
}

func (s *Session) StageFiles(files ...entity.UploadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, files...)
}

func (s *Session) StagedFiles() []entity.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.UploadedFile(nil), s.staged...)
}

func (s *Session) ClearStagedFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = nil
}

// AddCredits adds to the cumulative counter. Negative amounts are ignored so the
// counter never goes down.
func (s *Session) AddCredits(credits float64) {
	if credits <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalCredits += credits
}

func (s *Session) TotalCredits() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCredits
}

// RecordTaskCreated counts a newly created task, remembers it for continuation and
// unstages the files attached to it. Files staged after the task was built stay.
func (s *Session) RecordTaskCreated(taskID string, attached []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskCount++
	s.currentTaskID = taskID

	if len(attached) == 0 {
		return
	}
	drop := make(map[string]bool, len(attached))
	for _, id := range attached {
		drop[id] = true
	}
	kept := s.staged[:0:0]
	for _, f := range s.staged {
		if !drop[f.ID] {
			kept = append(kept, f)
		}
	}
	s.staged = kept
}

func (s *Session) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskCount
}

func (s *Session) CurrentTaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTaskID
}

// SnapshotAndReset moves the active conversation into history and starts a fresh
// one. An empty conversation is not saved. Returns the saved entry, if any.
func (s *Session) SnapshotAndReset() (*entity.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, ok := s.snapshotLocked()
	s.messages = nil
	s.staged = nil
	s.currentTaskID = ""
	return saved, ok
}

func (s *Session) snapshotLocked() (*entity.Conversation, bool) {
	if len(s.messages) == 0 {
		return nil, false
	}
	conv := entity.Conversation{
		ID:          uuid.NewString(),
		SavedAt:     s.now(),
		Messages:    cloneMessages(s.messages),
		TaskCount:   s.taskCount,
		CreditsUsed: s.totalCredits,
	}
	s.history = append(s.history, conv)
	return &conv, true
}

func (s *Session) History() []entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Conversation, len(s.history))
	for i, c := range s.history {
		c.Messages = cloneMessages(c.Messages)
		out[i] = c
	}
	return out
}

// Restore saves the active conversation to history and loads a saved one in its
// place. The continuation task is reset since the loaded messages belong to an
// older task chain.
func (s *Session) Restore(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *entity.Conversation
	for i := range s.history {
		if s.history[i].ID == conversationID {
			c := s.history[i]
			found = &c
			break
		}
	}
	if found == nil {
		return &entity.NotFoundError{Resource: "conversation", ID: conversationID}
	}

	s.snapshotLocked()
	s.messages = cloneMessages(found.Messages)
	s.currentTaskID = ""
	return nil
}

func (s *Session) Stats() entity.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.SessionStats{
		SessionID:     s.id,
		TaskCount:     s.taskCount,
		TotalCredits:  s.totalCredits,
		Messages:      len(s.messages),
		StagedFiles:   len(s.staged),
		History:       len(s.history),
		CurrentTaskID: s.currentTaskID,
	}
}

func (s *Session) String() string {
	st := s.Stats()
	return fmt.Sprintf("session %s: %d tasks, %.2f credits, %d messages", st.SessionID, st.TaskCount, st.TotalCredits, st.Messages)
}

func cloneMessages(msgs []entity.ConversationMessage) []entity.ConversationMessage {
	if msgs == nil {
		return nil
	}
	out := make([]entity.ConversationMessage, len(msgs))
	for i, m := range msgs {
		out[i] = cloneMessage(m)
	}
	return out
}

func cloneMessage(m entity.ConversationMessage) entity.ConversationMessage {
	m.Files = append([]string(nil), m.Files...)
	m.OutputFiles = append([]string(nil), m.OutputFiles...)
	if m.Credits != nil {
		c := *m.Credits
		m.Credits = &c
	}
	return m
}
