package output

import (
	"context"
	"time"

	"manus-dashboard/internal/domain/entity"
)

type ProgressPort interface {
	ShowTaskCreated(ctx context.Context, task *entity.Task)
	ShowPoll(ctx context.Context, taskID string, status entity.TaskStatus, poll int, elapsed time.Duration)
	ShowUpload(ctx context.Context, index, total int, record entity.UploadRecord)
}

// NopProgress discards all progress events.
type NopProgress struct{}

func (NopProgress) ShowTaskCreated(context.Context, *entity.Task) {}

func (NopProgress) ShowPoll(context.Context, string, entity.TaskStatus, int, time.Duration) {}

func (NopProgress) ShowUpload(context.Context, int, int, entity.UploadRecord) {}
