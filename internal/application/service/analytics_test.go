package service

import (
	"testing"
	"time"

	"manus-dashboard/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeTasks(t *testing.T) {
	day1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).Unix()
	day2 := time.Date(2025, 3, 2, 23, 0, 0, 0, time.UTC).Unix()
	tasks := []entity.Task{
		{ID: "a", Status: entity.TaskStatusCompleted, CreatedAt: day2, Metadata: map[string]any{entity.MetadataCreditUsage: 4.0}},
		{ID: "b", Status: entity.TaskStatusCompleted, CreatedAt: day1, Metadata: map[string]any{entity.MetadataCreditUsage: "2"}},
		{ID: "c", Status: entity.TaskStatusError, CreatedAt: day1},
		{ID: "d", Status: entity.TaskStatusRunning},
	}

	a := AnalyzeTasks(tasks)
	assert.Equal(t, 4, a.Total)
	assert.Equal(t, 2, a.ByStatus[entity.TaskStatusCompleted])
	assert.Equal(t, 1, a.ByStatus[entity.TaskStatusError])
	assert.Equal(t, 6.0, a.TotalCredits)
	assert.Equal(t, 3.0, a.AvgCredits)
	assert.Equal(t, 50.0, a.SuccessRate)
	assert.Equal(t, []DateCount{{"2025-03-01", 2}, {"2025-03-02", 1}}, a.TasksByDate)
}

func TestAnalyzeTasks_Empty(t *testing.T) {
	a := AnalyzeTasks(nil)
	assert.Zero(t, a.Total)
	assert.Zero(t, a.SuccessRate)
	assert.NotNil(t, a.ByStatus)
}

func TestAnalyzeFiles(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC).Unix()
	a := AnalyzeFiles([]entity.RemoteFile{
		{ID: "1", Filename: "a.PDF", Bytes: 100, Status: "uploaded", CreatedAt: created},
		{ID: "2", Filename: "b.pdf", Bytes: 50, Status: "uploaded", CreatedAt: created},
		{ID: "3", Filename: "Makefile", Bytes: 10},
	})

	assert.Equal(t, 3, a.Total)
	assert.Equal(t, 160, a.TotalBytes)
	assert.Equal(t, 2, a.ByType["pdf"])
	assert.Equal(t, 1, a.ByType["other"])
	assert.Equal(t, 1, a.ByStatus["unknown"])
	assert.Equal(t, []DateCount{{"2025-03-01", 2}}, a.FilesByDate)
}

func TestExpiry(t *testing.T) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	info := Expiry(created.Unix(), entity.DefaultFileExpiry, created.Add(46*time.Hour+30*time.Minute))
	assert.False(t, info.Expired)
	assert.Equal(t, 1, info.HoursLeft)
	assert.Equal(t, 30, info.MinutesLeft)

	info = Expiry(created.Unix(), entity.DefaultFileExpiry, created.Add(49*time.Hour))
	assert.True(t, info.Expired)
	assert.Zero(t, info.HoursLeft)
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512.0 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "100.0 MB", FormatFileSize(100*1024*1024))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", TimeAgo(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", TimeAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", TimeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", TimeAgo(now.Add(-50*time.Hour), now))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
