package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

var _ output.ProgressPort = (*Console)(nil)

const defaultWrap = 100

type Console struct {
	reader *bufio.Reader
	out    io.Writer
	wrap   int
	// Markdown rendering is off for non-terminal output and in tests.
	markdown bool
}

func NewConsole() *Console {
	return &Console{
		reader:   bufio.NewReader(os.Stdin),
		out:      color.Output,
		wrap:     defaultWrap,
		markdown: true,
	}
}

// NewPlainConsole writes uncoloured text to out and reads from in.
func NewPlainConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		reader: bufio.NewReader(in),
		out:    out,
		wrap:   defaultWrap,
	}
}

func (c *Console) Out() io.Writer {
	return c.out
}

// ReadLine prints the prompt and returns the trimmed next line. io.EOF is
// returned as is so callers can end their loop.
func (c *Console) ReadLine(prompt string) (string, error) {
	color.New(color.FgCyan, color.Bold).Fprint(c.out, prompt)
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) ShowTaskCreated(ctx context.Context, task *entity.Task) {
	color.New(color.FgYellow, color.Bold).Fprintf(c.out, "\n🚀 Task %s created\n", task.ID)
}

func (c *Console) ShowPoll(ctx context.Context, taskID string, status entity.TaskStatus, poll int, elapsed time.Duration) {
	dim := color.New(color.Faint)
	dim.Fprintf(c.out, "   %s %s (poll %d, %s)\n", statusIcon(status), status, poll, elapsed.Round(time.Second))
}

func (c *Console) ShowUpload(ctx context.Context, index, total int, record entity.UploadRecord) {
	prefix := fmt.Sprintf("[%d/%d] %s", index, total, record.Filename)
	switch record.Status {
	case entity.UploadStatusUploaded:
		color.New(color.FgGreen).Fprintf(c.out, "✓ %s (%s) → %s\n", prefix, service.FormatFileSize(record.Size), record.FileID)
	case entity.UploadStatusRejected:
		color.New(color.FgYellow).Fprintf(c.out, "⚠ %s rejected: %s\n", prefix, record.Reason)
	default:
		color.New(color.FgRed).Fprintf(c.out, "❌ %s failed: %s\n", prefix, record.Reason)
	}
}

// ShowReply prints an assistant message with its task link and usage.
func (c *Console) ShowReply(msg entity.ConversationMessage) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.RenderMarkdown(msg.Content))

	dim := color.New(color.Faint)
	if len(msg.OutputFiles) > 0 {
		dim.Fprintf(c.out, "📎 Files: %s\n", strings.Join(msg.OutputFiles, ", "))
	}
	if msg.TaskURL != "" {
		dim.Fprintf(c.out, "🔗 %s\n", msg.TaskURL)
	}
	if msg.Credits != nil {
		dim.Fprintf(c.out, "💳 %.2f credits\n", *msg.Credits)
	}
}

func (c *Console) ShowError(err error) {
	color.New(color.FgRed).Fprint(c.out, "❌ Error: ")
	fmt.Fprintln(c.out, err)
}

func (c *Console) ShowInfo(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(c.out, format+"\n", args...)
}

func (c *Console) ShowStats(st entity.SessionStats) {
	bold := color.New(color.Bold)
	bold.Fprintln(c.out, "Session")
	fmt.Fprintf(c.out, "  ID:            %s\n", st.SessionID)
	fmt.Fprintf(c.out, "  Tasks:         %d\n", st.TaskCount)
	fmt.Fprintf(c.out, "  Credits:       %.2f\n", st.TotalCredits)
	fmt.Fprintf(c.out, "  Messages:      %d\n", st.Messages)
	fmt.Fprintf(c.out, "  Staged files:  %d\n", st.StagedFiles)
	fmt.Fprintf(c.out, "  Saved chats:   %d\n", st.History)
	if st.CurrentTaskID != "" {
		fmt.Fprintf(c.out, "  Current task:  %s\n", st.CurrentTaskID)
	}
}

func (c *Console) ShowHistory(history []entity.Conversation) {
	if len(history) == 0 {
		fmt.Fprintln(c.out, "No saved conversations.")
		return
	}
	for i, conv := range history {
		first := ""
		if len(conv.Messages) > 0 {
			first = service.Truncate(conv.Messages[0].Content, 60)
		}
		fmt.Fprintf(c.out, "%2d. %s  %s  %d messages  %s\n",
			i+1, conv.ID, conv.SavedAt.Format(entity.TimestampLayout), len(conv.Messages), first)
	}
}

func (c *Console) ShowStagedFiles(files []entity.UploadedFile) {
	if len(files) == 0 {
		fmt.Fprintln(c.out, "No files staged.")
		return
	}
	for _, f := range files {
		fmt.Fprintf(c.out, "  📄 %s (%s) %s\n", f.Name, service.FormatFileSize(f.Size), f.ID)
	}
}

func (c *Console) ShowRemoteFiles(files []entity.RemoteFile, retention time.Duration, now time.Time) {
	if len(files) == 0 {
		fmt.Fprintln(c.out, "No files.")
		return
	}
	fmt.Fprintf(c.out, "%-28s  %-32s  %10s  %-10s  %s\n", "ID", "NAME", "SIZE", "STATUS", "EXPIRES")
	for _, f := range files {
		exp := service.Expiry(f.CreatedAt, retention, now)
		expires := "expired"
		if !exp.Expired {
			expires = fmt.Sprintf("in %dh %dm", exp.HoursLeft, exp.MinutesLeft)
		}
		fmt.Fprintf(c.out, "%-28s  %-32s  %10s  %-10s  %s\n",
			f.ID, service.Truncate(f.Filename, 32), service.FormatFileSize(f.Bytes), f.Status, expires)
	}
}

func (c *Console) ShowTasks(tasks []entity.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(c.out, "No tasks.")
		return
	}
	fmt.Fprintf(c.out, "%-24s  %-14s  %8s  %-10s  %s\n", "ID", "STATUS", "CREDITS", "CREATED", "TITLE")
	for _, t := range tasks {
		title := t.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(c.out, "%-24s  %s %-12s  %8.2f  %-10s  %s\n",
			t.ID, statusIcon(t.Status), t.Status, t.CreditUsage(), service.TimeAgo(t.Created(), now), service.Truncate(title, 50))
	}
}

func (c *Console) ShowTask(t *entity.Task) {
	bold := color.New(color.Bold)
	bold.Fprintf(c.out, "%s %s\n", statusIcon(t.Status), t.ID)
	if t.Title != "" {
		fmt.Fprintf(c.out, "  Title:    %s\n", t.Title)
	}
	fmt.Fprintf(c.out, "  Status:   %s\n", t.Status)
	fmt.Fprintf(c.out, "  Created:  %s\n", t.Created().Format(entity.TimestampLayout))
	fmt.Fprintf(c.out, "  Credits:  %.2f\n", t.CreditUsage())
	fmt.Fprintf(c.out, "  Model:    %s\n", t.Model())
	fmt.Fprintf(c.out, "  Profile:  %s\n", t.Profile())
	if u := t.TaskURL(); u != "" {
		fmt.Fprintf(c.out, "  URL:      %s\n", u)
	}
}

func (c *Console) ShowTaskAnalysis(a service.TaskAnalysis) {
	bold := color.New(color.Bold)
	bold.Fprintln(c.out, "Tasks")
	fmt.Fprintf(c.out, "  Total:         %d\n", a.Total)
	fmt.Fprintf(c.out, "  Success rate:  %.1f%%\n", a.SuccessRate)
	fmt.Fprintf(c.out, "  Credits:       %.2f (avg %.2f)\n", a.TotalCredits, a.AvgCredits)
	for _, s := range []entity.TaskStatus{
		entity.TaskStatusCompleted, entity.TaskStatusRunning, entity.TaskStatusQueued,
		entity.TaskStatusPendingInput, entity.TaskStatusError, entity.TaskStatusCreated,
	} {
		if n := a.ByStatus[s]; n > 0 {
			fmt.Fprintf(c.out, "  %s %-13s %d\n", statusIcon(s), s, n)
		}
	}
	for _, d := range a.TasksByDate {
		fmt.Fprintf(c.out, "  %s  %s\n", d.Date, strings.Repeat("▇", d.Count))
	}
}

// RenderMarkdown renders agent output for the terminal. It falls back to the raw
// text if rendering is disabled or fails.
func (c *Console) RenderMarkdown(text string) string {
	if !c.markdown {
		return text
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(c.wrap),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

func statusIcon(s entity.TaskStatus) string {
	switch s {
	case entity.TaskStatusCompleted:
		return "✅"
	case entity.TaskStatusRunning:
		return "🔄"
	case entity.TaskStatusQueued, entity.TaskStatusCreated:
		return "⏳"
	case entity.TaskStatusPendingInput:
		return "⏸️"
	case entity.TaskStatusError:
		return "❌"
	}
	return "❓"
}
