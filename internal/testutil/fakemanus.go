package testutil

import (
	"context"
	"fmt"
	"sync"

	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/domain/entity"
)

var _ output.ManusPort = (*FakeManus)(nil)

// FakeManus is an in-memory ManusPort. Snapshots queued with Script are returned
// by GetTask in order; the last one repeats once the queue is drained.
type FakeManus struct {
	mu sync.Mutex

	CreateErr   error
	GetErr      error
	RegisterErr map[string]error
	UploadErr   error

	Created    []entity.CreateTaskRequest
	Registered []string
	Uploaded   map[string][]byte
	GetCalls   int
	Deleted    []string

	Files []entity.RemoteFile
	Tasks []entity.Task

	nextID   int
	snapshot []*entity.Task
}

func NewFakeManus() *FakeManus {
	return &FakeManus{
		RegisterErr: map[string]error{},
		Uploaded:    map[string][]byte{},
	}
}

// Script queues the snapshots GetTask returns.
func (f *FakeManus) Script(snapshots ...*entity.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = append(f.snapshot, snapshots...)
}

func (f *FakeManus) Calls() (created, polls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Created), f.GetCalls
}

func (f *FakeManus) RegisterFile(_ context.Context, filename string) (*entity.FileSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Registered = append(f.Registered, filename)
	if err := f.RegisterErr[filename]; err != nil {
		return nil, err
	}
	f.nextID++
	id := fmt.Sprintf("file-%d", f.nextID)
	return &entity.FileSlot{ID: id, UploadURL: "https://upload.test/" + id}, nil
}

func (f *FakeManus) UploadBytes(_ context.Context, uploadURL string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return f.UploadErr
	}
	f.Uploaded[uploadURL] = append([]byte(nil), data...)
	return nil
}

func (f *FakeManus) ListFiles(context.Context) ([]entity.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.RemoteFile{}, f.Files...), nil
}

func (f *FakeManus) DeleteFile(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, file := range f.Files {
		if file.ID == fileID {
			f.Files = append(f.Files[:i], f.Files[i+1:]...)
			f.Deleted = append(f.Deleted, fileID)
			return nil
		}
	}
	return &entity.NotFoundError{Resource: "file", ID: fileID}
}

func (f *FakeManus) CreateTask(_ context.Context, req entity.CreateTaskRequest) (*entity.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.Created = append(f.Created, req)
	f.nextID++
	return &entity.Task{
		ID:             fmt.Sprintf("task-%d", f.nextID),
		Status:         entity.TaskStatusCreated,
		PreviousTaskID: req.PreviousTaskID,
	}, nil
}

func (f *FakeManus) GetTask(_ context.Context, taskID string) (*entity.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	if len(f.snapshot) == 0 {
		return &entity.Task{ID: taskID, Status: entity.TaskStatusRunning}, nil
	}
	next := f.snapshot[0]
	if len(f.snapshot) > 1 {
		f.snapshot = f.snapshot[1:]
	}
	out := *next
	out.ID = taskID
	return &out, nil
}

func (f *FakeManus) DeleteTask(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.Tasks {
		if t.ID == taskID {
			f.Tasks = append(f.Tasks[:i], f.Tasks[i+1:]...)
			f.Deleted = append(f.Deleted, taskID)
			return nil
		}
	}
	return &entity.NotFoundError{Resource: "task", ID: taskID}
}

func (f *FakeManus) ListTasks(_ context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.Task{}
	for _, t := range f.Tasks {
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, t.Status) {
			continue
		}
		out = append(out, t)
		if len(out) == filter.ClampedLimit() {
			break
		}
	}
	return out, nil
}

func hasStatus(statuses []entity.TaskStatus, s entity.TaskStatus) bool {
	for _, want := range statuses {
		if want == s {
			return true
		}
	}
	return false
}

// Completed builds a terminal snapshot with one assistant text and the given
// credit usage.
func Completed(text string, credits any) *entity.Task {
	return &entity.Task{
		Status:   entity.TaskStatusCompleted,
		Metadata: map[string]any{entity.MetadataCreditUsage: credits, entity.MetadataTaskURL: "https://manus.im/app/task"},
		Output: []entity.Message{{
			Role:    entity.RoleAssistant,
			Content: []entity.ContentItem{entity.TextContent{Text: text}},
		}},
	}
}

func Status(s entity.TaskStatus) *entity.Task {
	return &entity.Task{Status: s}
}
