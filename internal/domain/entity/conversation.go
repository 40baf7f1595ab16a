package entity

import "time"

type ConversationMessage struct {
	Role        MessageRole `json:"role"`
	Content     string      `json:"content"`
	Timestamp   string      `json:"timestamp,omitempty"`
	Files       []string    `json:"files,omitempty"`
	TaskURL     string      `json:"task_url,omitempty"`
	Credits     *float64    `json:"credits,omitempty"`
	OutputFiles []string    `json:"output_files,omitempty"`
}

type Conversation struct {
	ID          string                `json:"id"`
	SavedAt     time.Time             `json:"saved_at"`
	Messages    []ConversationMessage `json:"messages"`
	TaskCount   int                   `json:"task_count"`
	CreditsUsed float64               `json:"credits_used"`
}

type SessionStats struct {
	SessionID     string  `json:"session_id"`
	TaskCount     int     `json:"task_count"`
	TotalCredits  float64 `json:"total_credits"`
	Messages      int     `json:"messages"`
	StagedFiles   int     `json:"staged_files"`
	History       int     `json:"history"`
	CurrentTaskID string  `json:"current_task_id,omitempty"`
}

// TimestampLayout is the layout used for conversation message timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

type ExportFormat string

const (
	ExportJSON     ExportFormat = "json"
	ExportMarkdown ExportFormat = "markdown"
	ExportText     ExportFormat = "txt"
	ExportCSV      ExportFormat = "csv"
)
