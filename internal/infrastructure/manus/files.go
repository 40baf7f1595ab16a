package manus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"manus-dashboard/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

func (a *Adapter) RegisterFile(ctx context.Context, filename string) (*entity.FileSlot, error) {
	var slot entity.FileSlot
	err := a.doJSON(ctx, http.MethodPost, "/files", nil, map[string]string{"filename": filename}, &slot)
	if err != nil {
		return nil, remoteError("register file", err)
	}
	if slot.ID == "" || slot.UploadURL == "" {
		return nil, &entity.RemoteError{Op: "register file", Message: "response is missing id or upload_url"}
	}
	a.logger.Debug("File registered", "filename", filename, "fileId", slot.ID)
	return &slot, nil
}

func (a *Adapter) UploadBytes(ctx context.Context, uploadURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return &entity.UploadError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.ContentLength = int64(len(data))

	resp, err := a.upload.Do(req)
	if err != nil {
		return &entity.UploadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &entity.UploadError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (a *Adapter) ListFiles(ctx context.Context) ([]entity.RemoteFile, error) {
	list, err := a.files.ListFiles(ctx)
	if err != nil {
		return nil, openAIError("list files", "file", "", err)
	}
	out := make([]entity.RemoteFile, 0, len(list.Files))
	for _, f := range list.Files {
		out = append(out, entity.RemoteFile{
			ID:        f.ID,
			Filename:  f.FileName,
			Bytes:     f.Bytes,
			Status:    f.Status,
			CreatedAt: f.CreatedAt,
		})
	}
	return out, nil
}

func (a *Adapter) DeleteFile(ctx context.Context, fileID string) error {
	if err := a.files.DeleteFile(ctx, fileID); err != nil {
		return openAIError("delete file", "file", fileID, err)
	}
	a.logger.Info("File deleted", "fileId", fileID)
	return nil
}

// openAIError maps go-openai errors, which carry the HTTP status, onto domain errors.
func openAIError(op, resource, id string, err error) error {
	status := 0
	msg := ""
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		msg = apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusNotFound && id != "" {
		return &entity.NotFoundError{Resource: resource, ID: id}
	}
	return &entity.RemoteError{Op: op, StatusCode: status, Message: msg, Err: err}
}

func remoteError(op string, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		return &entity.RemoteError{Op: op, StatusCode: se.StatusCode, Message: se.Message, Err: err}
	}
	return &entity.RemoteError{Op: op, Err: err}
}
