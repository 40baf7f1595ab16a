package input

import (
	"context"

	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"
)

type FileUploader interface {
	Upload(ctx context.Context, files []entity.LocalFile) []entity.UploadRecord
	Stage(sess *service.Session, records []entity.UploadRecord) int
}
