package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"mime"
	"net/http"
	"time"

	"manus-dashboard/internal/application/port/input"
	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"

	"github.com/disintegration/imaging"
)

var _ input.FileUploader = (*UseCase)(nil)

// decodeRatio caps how far over MaxFileSize an image may be and still get decoded
// for downscaling. Anything larger is rejected by the size check undecoded.
const decodeRatio = 4

type Config struct {
	MaxFileSize    int
	SupportedTypes []string
	// ImageMaxWidth downsizes wider raster images before upload. Zero disables it.
	ImageMaxWidth int
}

type UseCase struct {
	manus    output.ManusPort
	progress output.ProgressPort
	logger   output.LoggerPort
	cfg      Config
	allowed  map[string]bool
	now      func() time.Time
}

func New(manus output.ManusPort, progress output.ProgressPort, logger output.LoggerPort, cfg Config) *UseCase {
	if progress == nil {
		progress = output.NopProgress{}
	}
	if logger == nil {
		logger = output.NopLogger{}
	}
	allowed := make(map[string]bool, len(cfg.SupportedTypes))
	for _, ext := range cfg.SupportedTypes {
		allowed[entity.Extension("f."+ext)] = true
	}
	return &UseCase{
		manus:    manus,
		progress: progress,
		logger:   logger,
		cfg:      cfg,
		allowed:  allowed,
		now:      time.Now,
	}
}

// Upload processes files one at a time in input order. A failing file never stops
// the batch; its record says why.
func (uc *UseCase) Upload(ctx context.Context, files []entity.LocalFile) []entity.UploadRecord {
	records := make([]entity.UploadRecord, 0, len(files))
	for i, f := range files {
		rec := uc.uploadOne(ctx, f)
		records = append(records, rec)
		uc.progress.ShowUpload(ctx, i+1, len(files), rec)
	}

	uploaded := 0
	for _, r := range records {
		if r.Status == entity.UploadStatusUploaded {
			uploaded++
		}
	}
	uc.logger.Info("Upload batch finished", "files", len(files), "uploaded", uploaded)
	return records
}

func (uc *UseCase) uploadOne(ctx context.Context, f entity.LocalFile) entity.UploadRecord {
	rec := entity.UploadRecord{
		Filename: f.Name,
		Size:     len(f.Data),
		MIMEType: mimeType(f),
	}

	if reason := uc.checkType(f.Name); reason != "" {
		return uc.reject(rec, reason)
	}

	data := uc.downscale(f)
	rec.Size = len(data)
	if reason := uc.checkSize(data); reason != "" {
		return uc.reject(rec, reason)
	}

	if err := ctx.Err(); err != nil {
		return uc.fail(rec, err)
	}

	slot, err := uc.manus.RegisterFile(ctx, f.Name)
	if err != nil {
		return uc.fail(rec, err)
	}
	if err := uc.manus.UploadBytes(ctx, slot.UploadURL, data); err != nil {
		return uc.fail(rec, withFilename(err, f.Name))
	}

	rec.FileID = slot.ID
	rec.Status = entity.UploadStatusUploaded
	uc.logger.Info("File uploaded", "filename", f.Name, "fileId", slot.ID, "size", rec.Size)
	return rec
}

func (uc *UseCase) checkType(name string) string {
	if len(uc.allowed) == 0 {
		return ""
	}
	ext := entity.Extension(name)
	if !uc.allowed[ext] {
		if ext == "" {
			return "file has no extension"
		}
		return fmt.Sprintf("file type .%s is not supported", ext)
	}
	return ""
}

func (uc *UseCase) checkSize(data []byte) string {
	if len(data) == 0 {
		return "file is empty"
	}
	if uc.cfg.MaxFileSize > 0 && len(data) > uc.cfg.MaxFileSize {
		return fmt.Sprintf("file is %s, limit is %s",
			service.FormatFileSize(len(data)), service.FormatFileSize(uc.cfg.MaxFileSize))
	}
	return ""
}

// downscale returns the bytes to upload. Images that cannot be decoded are sent
// unchanged.
func (uc *UseCase) downscale(f entity.LocalFile) []byte {
	if uc.cfg.ImageMaxWidth <= 0 || !resizable(f.Name) {
		return f.Data
	}
	if uc.cfg.MaxFileSize > 0 && len(f.Data) > decodeRatio*uc.cfg.MaxFileSize {
		uc.logger.Debug("Image too large to downscale", "filename", f.Name, "bytes", len(f.Data))
		return f.Data
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		uc.logger.Warn("Image decode failed, uploading original", "filename", f.Name, "error", err)
		return f.Data
	}
	if img.Bounds().Dx() <= uc.cfg.ImageMaxWidth {
		return f.Data
	}

	format, err := imaging.FormatFromFilename(f.Name)
	if err != nil {
		return f.Data
	}

	resized := imaging.Resize(img, uc.cfg.ImageMaxWidth, 0, imaging.Lanczos)
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, resized, format); err != nil {
		uc.logger.Warn("Image encode failed, uploading original", "filename", f.Name, "error", err)
		return f.Data
	}

	uc.logger.Debug("Image downscaled",
		"filename", f.Name,
		"from", dims(img),
		"to", dims(resized),
		"bytes", buf.Len(),
	)
	return buf.Bytes()
}

func (uc *UseCase) reject(rec entity.UploadRecord, reason string) entity.UploadRecord {
	rec.Status = entity.UploadStatusRejected
	rec.Reason = reason
	uc.logger.Warn("File rejected", "filename", rec.Filename, "reason", reason)
	return rec
}

func (uc *UseCase) fail(rec entity.UploadRecord, err error) entity.UploadRecord {
	rec.Status = entity.UploadStatusFailed
	rec.Reason = err.Error()
	uc.logger.Error("File upload failed", "filename", rec.Filename, "error", err)
	return rec
}

// Stage adds the uploaded records to the session's staging list and returns how
// many were staged.
func (uc *UseCase) Stage(sess *service.Session, records []entity.UploadRecord) int {
	var files []entity.UploadedFile
	for _, r := range records {
		if r.Status != entity.UploadStatusUploaded {
			continue
		}
		files = append(files, entity.UploadedFile{
			ID:         r.FileID,
			Name:       r.Filename,
			Size:       r.Size,
			MIMEType:   r.MIMEType,
			UploadedAt: uc.now(),
		})
	}
	if len(files) > 0 {
		sess.StageFiles(files...)
	}
	return len(files)
}

func resizable(name string) bool {
	switch entity.Extension(name) {
	case "png", "jpg", "jpeg", "gif":
		return true
	}
	return false
}

func mimeType(f entity.LocalFile) string {
	if f.MIMEType != "" {
		return f.MIMEType
	}
	if t := mime.TypeByExtension("." + entity.Extension(f.Name)); t != "" {
		return t
	}
	return http.DetectContentType(f.Data)
}

func withFilename(err error, name string) error {
	var ue *entity.UploadError
	if errors.As(err, &ue) && ue.Filename == "" {
		c := *ue
		c.Filename = name
		return &c
	}
	return err
}

func dims(img image.Image) string {
	b := img.Bounds()
	return fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
}
