package manus

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"manus-dashboard/internal/domain/entity"
)

type createTaskBody struct {
	Input          []entity.Message `json:"input"`
	TaskMode       string           `json:"task_mode"`
	AgentProfile   string           `json:"agent_profile"`
	TimeoutSeconds int              `json:"timeout_seconds"`
	TaskID         string           `json:"task_id,omitempty"`
}

// buildInput orders content as text, then files, then the image.
func buildInput(req entity.CreateTaskRequest) []entity.Message {
	content := []entity.ContentItem{entity.TextContent{Text: req.InputText}}
	for _, id := range req.FileIDs {
		content = append(content, entity.InputFileContent{FileID: id})
	}
	if req.ImageURL != "" {
		content = append(content, entity.InputImageContent{URL: req.ImageURL})
	}
	return []entity.Message{{Role: entity.RoleUser, Content: content}}
}

func (a *Adapter) CreateTask(ctx context.Context, req entity.CreateTaskRequest) (*entity.Task, error) {
	body := createTaskBody{
		Input:          buildInput(req),
		TaskMode:       "agent",
		AgentProfile:   string(req.AgentProfile),
		TimeoutSeconds: req.TimeoutSeconds,
		TaskID:         req.PreviousTaskID,
	}

	var task entity.Task
	if err := a.doJSON(ctx, http.MethodPost, "/responses", nil, body, &task); err != nil {
		return nil, &entity.TaskCreationError{Err: remoteError("create task", err)}
	}
	if task.ID == "" {
		return nil, &entity.TaskCreationError{Err: &entity.RemoteError{Op: "create task", Message: "response has no task id"}}
	}
	if task.Status == "" {
		task.Status = entity.TaskStatusCreated
	}
	if task.PreviousTaskID == "" {
		task.PreviousTaskID = req.PreviousTaskID
	}

	a.logger.Info("Task created", "taskId", task.ID, "profile", req.AgentProfile, "files", len(req.FileIDs))
	return &task, nil
}

func (a *Adapter) GetTask(ctx context.Context, taskID string) (*entity.Task, error) {
	var task entity.Task
	err := a.doJSON(ctx, http.MethodGet, "/responses/"+url.PathEscape(taskID), nil, nil, &task)
	if err != nil {
		if isNotFound(err) {
			return nil, &entity.NotFoundError{Resource: "task", ID: taskID}
		}
		return nil, remoteError("get task", err)
	}
	if task.ID == "" {
		task.ID = taskID
	}
	if task.Status == "" {
		return nil, &entity.RemoteError{Op: "get task", Message: "response has no status"}
	}
	return &task, nil
}

func (a *Adapter) DeleteTask(ctx context.Context, taskID string) error {
	err := a.doJSON(ctx, http.MethodDelete, "/responses/"+url.PathEscape(taskID), nil, nil, nil)
	if err != nil {
		if isNotFound(err) {
			return &entity.NotFoundError{Resource: "task", ID: taskID}
		}
		return remoteError("delete task", err)
	}
	a.logger.Info("Task deleted", "taskId", taskID)
	return nil
}

func (a *Adapter) ListTasks(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(filter.ClampedLimit()))
	for _, s := range filter.Statuses {
		query.Add("status", wireStatus(s))
	}
	if filter.Query != "" {
		query.Set("query", filter.Query)
	}

	var envelope struct {
		Data []entity.Task `json:"data"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/v1/tasks", query, nil, &envelope); err != nil {
		return nil, remoteError("list tasks", err)
	}
	if envelope.Data == nil {
		return []entity.Task{}, nil
	}
	return envelope.Data, nil
}

// wireStatus is the filter value the list endpoint understands.
func wireStatus(s entity.TaskStatus) string {
	if s == entity.TaskStatusPendingInput {
		return "pending"
	}
	return string(s)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
