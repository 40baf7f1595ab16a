package service

import (
	"fmt"
	"sort"
	"time"

	"manus-dashboard/internal/domain/entity"
)

type TaskAnalysis struct {
	Total        int                       `json:"total"`
	ByStatus     map[entity.TaskStatus]int `json:"by_status"`
	TotalCredits float64                   `json:"total_credits"`
	AvgCredits   float64                   `json:"avg_credits"`
	SuccessRate  float64                   `json:"success_rate"`
	TasksByDate  []DateCount               `json:"tasks_by_date"`
}

type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyzeTasks aggregates a task list. Average credits are taken over the tasks that
// report a credit_usage entry at all.
func AnalyzeTasks(tasks []entity.Task) TaskAnalysis {
	a := TaskAnalysis{ByStatus: make(map[entity.TaskStatus]int)}
	if len(tasks) == 0 {
		return a
	}

	byDate := make(map[string]int)
	reporting := 0
	for i := range tasks {
		t := &tasks[i]
		a.Total++
		a.ByStatus[t.Status]++
		if _, ok := t.Metadata[entity.MetadataCreditUsage]; ok {
			reporting++
			a.TotalCredits += t.CreditUsage()
		}
		if t.CreatedAt > 0 {
			byDate[t.Created().UTC().Format("2006-01-02")]++
		}
	}
	if reporting > 0 {
		a.AvgCredits = a.TotalCredits / float64(reporting)
	}
	a.SuccessRate = float64(a.ByStatus[entity.TaskStatusCompleted]) / float64(a.Total) * 100
	a.TasksByDate = sortedDateCounts(byDate)
	return a
}

type FileAnalysis struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	ByType      map[string]int `json:"by_type"`
	TotalBytes  int            `json:"total_bytes"`
	FilesByDate []DateCount    `json:"files_by_date"`
}

func AnalyzeFiles(files []entity.RemoteFile) FileAnalysis {
	a := FileAnalysis{ByStatus: make(map[string]int), ByType: make(map[string]int)}
	byDate := make(map[string]int)
	for _, f := range files {
		a.Total++
		status := f.Status
		if status == "" {
			status = "unknown"
		}
		a.ByStatus[status]++
		ext := entity.Extension(f.Filename)
		if ext == "" {
			ext = "other"
		}
		a.ByType[ext]++
		a.TotalBytes += f.Bytes
		if f.CreatedAt > 0 {
			byDate[time.Unix(f.CreatedAt, 0).UTC().Format("2006-01-02")]++
		}
	}
	a.FilesByDate = sortedDateCounts(byDate)
	return a
}

func sortedDateCounts(m map[string]int) []DateCount {
	out := make([]DateCount, 0, len(m))
	for d, c := range m {
		out = append(out, DateCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type ExpiryInfo struct {
	ExpiresAt   time.Time `json:"expires_at"`
	Expired     bool      `json:"expired"`
	HoursLeft   int       `json:"hours_left"`
	MinutesLeft int       `json:"minutes_left"`
}

// Expiry is informational only; the service deletes files on its own schedule.
func Expiry(createdAt int64, retention time.Duration, now time.Time) ExpiryInfo {
	expires := time.Unix(createdAt, 0).Add(retention)
	left := expires.Sub(now)
	info := ExpiryInfo{ExpiresAt: expires, Expired: left <= 0}
	if left > 0 {
		info.HoursLeft = int(left.Hours())
		info.MinutesLeft = int(left.Minutes()) % 60
	}
	return info
}

func FormatFileSize(n int) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f PB", size)
}

func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	days := int(d.Hours() / 24)
	switch {
	case days > 365:
		return fmt.Sprintf("%dy ago", days/365)
	case days > 30:
		return fmt.Sprintf("%dmo ago", days/30)
	case days > 0:
		return fmt.Sprintf("%dd ago", days)
	case d > time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d > time.Minute:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return "just now"
}

func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
