package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"manus-dashboard/internal/domain/entity"
)

func ParseExportFormat(s string) (entity.ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return entity.ExportJSON, nil
	case "markdown", "md":
		return entity.ExportMarkdown, nil
	case "txt", "text", "plain-text", "plain":
		return entity.ExportText, nil
	case "csv":
		return entity.ExportCSV, nil
	}
	return "", &entity.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported export format %q", s)}
}

// ExportConversation renders messages without touching them.
func ExportConversation(messages []entity.ConversationMessage, format entity.ExportFormat) (string, error) {
	switch format {
	case entity.ExportJSON:
		if messages == nil {
			messages = []entity.ConversationMessage{}
		}
		data, err := json.MarshalIndent(messages, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal conversation: %w", err)
		}
		return string(data), nil

	case entity.ExportMarkdown:
		var b strings.Builder
		b.WriteString("# Manus Conversation History\n\n")
		for _, msg := range messages {
			fmt.Fprintf(&b, "## %s\n*%s*\n\n%s\n\n---\n\n", strings.ToUpper(string(msg.Role)), msg.Timestamp, msg.Content)
		}
		return b.String(), nil

	case entity.ExportText:
		var b strings.Builder
		for _, msg := range messages {
			fmt.Fprintf(&b, "%s: %s\n\n", strings.ToUpper(string(msg.Role)), msg.Content)
		}
		return b.String(), nil
	}
	return "", &entity.ValidationError{Field: "format", Message: fmt.Sprintf("conversation export does not support %q", format)}
}

// ExportTasks renders a task list as JSON or CSV.
func ExportTasks(tasks []entity.Task, format entity.ExportFormat) (string, error) {
	switch format {
	case entity.ExportJSON:
		if tasks == nil {
			tasks = []entity.Task{}
		}
		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal tasks: %w", err)
		}
		return string(data), nil

	case entity.ExportCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"id", "title", "status", "created_at", "credit_usage", "task_url"}); err != nil {
			return "", fmt.Errorf("write csv header: %w", err)
		}
		for _, t := range tasks {
			row := []string{
				t.ID,
				t.Title,
				string(t.Status),
				time.Unix(t.CreatedAt, 0).UTC().Format(time.RFC3339),
				strconv.FormatFloat(t.CreditUsage(), 'f', -1, 64),
				t.TaskURL(),
			}
			if err := w.Write(row); err != nil {
				return "", fmt.Errorf("write csv row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("flush csv: %w", err)
		}
		return buf.String(), nil
	}
	return "", &entity.ValidationError{Field: "format", Message: fmt.Sprintf("task export does not support %q", format)}
}

// ExportFilename builds a timestamped download name like manus_tasks_20250102_150405.json.
func ExportFilename(base string, format entity.ExportFormat, now time.Time) string {
	ext := string(format)
	if format == entity.ExportMarkdown {
		ext = "md"
	}
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), ext)
}
