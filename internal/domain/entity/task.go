package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusCreated      TaskStatus = "created"
	TaskStatusQueued       TaskStatus = "queued"
	TaskStatusRunning      TaskStatus = "running"
	TaskStatusPendingInput TaskStatus = "pending_input"
	TaskStatusCompleted    TaskStatus = "completed"
	TaskStatusError        TaskStatus = "error"
)

// ParseTaskStatus maps a wire status onto the known set. The service reports
// "pending" for tasks waiting on the user, which is the same state as pending_input.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created":
		return TaskStatusCreated, nil
	case "queued":
		return TaskStatusQueued, nil
	case "running", "in_progress":
		return TaskStatusRunning, nil
	case "pending", "pending_input":
		return TaskStatusPendingInput, nil
	case "completed":
		return TaskStatusCompleted, nil
	case "error", "failed":
		return TaskStatusError, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Terminal reports whether polling should stop at this status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusPendingInput, TaskStatusCompleted, TaskStatusError:
		return true
	}
	return false
}

func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("task status: %w", err)
	}
	parsed, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

const (
	MetadataCreditUsage = "credit_usage"
	MetadataTaskURL     = "task_url"
	MetadataModel       = "model"
	MetadataProfile     = "profile"
)

type Task struct {
	ID             string         `json:"id"`
	Status         TaskStatus     `json:"status"`
	Title          string         `json:"title,omitempty"`
	CreatedAt      int64          `json:"created_at"`
	PreviousTaskID string         `json:"previous_task_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Output         []Message      `json:"output,omitempty"`
}

func (t *Task) Created() time.Time {
	return time.Unix(t.CreatedAt, 0)
}

// CreditUsage reads metadata.credit_usage. Missing, unparseable and negative values
// all count as zero.
func (t *Task) CreditUsage() float64 {
	if t.Metadata == nil {
		return 0
	}
	var credits float64
	switch v := t.Metadata[MetadataCreditUsage].(type) {
	case float64:
		credits = v
	case float32:
		credits = float64(v)
	case int:
		credits = float64(v)
	case int64:
		credits = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		credits = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		credits = f
	default:
		return 0
	}
	if credits < 0 {
		return 0
	}
	return credits
}

func (t *Task) TaskURL() string {
	return t.metadataString(MetadataTaskURL)
}

func (t *Task) Model() string {
	if v := t.metadataString(MetadataModel); v != "" {
		return v
	}
	return "unknown"
}

func (t *Task) Profile() string {
	if v := t.metadataString(MetadataProfile); v != "" {
		return v
	}
	return "unknown"
}

func (t *Task) metadataString(key string) string {
	if t.Metadata == nil {
		return ""
	}
	s, _ := t.Metadata[key].(string)
	return s
}

type CreateTaskRequest struct {
	InputText      string
	FileIDs        []string
	ImageURL       string
	AgentProfile   AgentProfile
	PreviousTaskID string
	TimeoutSeconds int
}

type TaskFilter struct {
	Statuses []TaskStatus
	Limit    int
	Query    string
}

const (
	MinTaskLimit = 1
	MaxTaskLimit = 100
)

// ClampedLimit keeps the limit inside [MinTaskLimit, MaxTaskLimit].
func (f TaskFilter) ClampedLimit() int {
	switch {
	case f.Limit < MinTaskLimit:
		return MinTaskLimit
	case f.Limit > MaxTaskLimit:
		return MaxTaskLimit
	}
	return f.Limit
}
