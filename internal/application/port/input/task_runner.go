package input

import (
	"context"
	"time"

	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"
)

type TaskRequest struct {
	InputText      string
	FileIDs        []string
	ImageURL       string
	AgentProfile   entity.AgentProfile
	PreviousTaskID string
	TimeoutSeconds int
}

type TaskResult struct {
	Task        *entity.Task
	Text        string
	OutputFiles []entity.OutputFileContent
	Credits     float64
	Elapsed     time.Duration
	Polls       int
}

// TaskUpdate is one observation of a running task. The last update on the channel
// carries either Result or Err.
type TaskUpdate struct {
	TaskID  string
	Status  entity.TaskStatus
	Task    *entity.Task
	Poll    int
	Elapsed time.Duration
	Result  *TaskResult
	Err     error
}

func (u TaskUpdate) Final() bool {
	return u.Result != nil || u.Err != nil
}

type TaskRunner interface {
	Start(ctx context.Context, sess *service.Session, req TaskRequest) <-chan TaskUpdate
	Run(ctx context.Context, sess *service.Session, req TaskRequest) (*TaskResult, error)
}
