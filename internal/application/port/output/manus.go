package output

import (
	"context"

	"manus-dashboard/internal/domain/entity"
)

type ManusPort interface {
	RegisterFile(ctx context.Context, filename string) (*entity.FileSlot, error)
	UploadBytes(ctx context.Context, uploadURL string, data []byte) error
	ListFiles(ctx context.Context) ([]entity.RemoteFile, error)
	DeleteFile(ctx context.Context, fileID string) error

	CreateTask(ctx context.Context, req entity.CreateTaskRequest) (*entity.Task, error)
	GetTask(ctx context.Context, taskID string) (*entity.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	ListTasks(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error)
}
