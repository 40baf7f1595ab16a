package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"manus-dashboard/internal/application/port/input"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"

	"github.com/go-chi/chi/v5"
)

type chatRequest struct {
	Text           string `json:"text"`
	ImageURL       string `json:"image_url,omitempty"`
	AgentProfile   string `json:"agent_profile,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type outputFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type chatResponse struct {
	Reply       entity.ConversationMessage `json:"reply"`
	TaskID      string                     `json:"task_id"`
	Status      entity.TaskStatus          `json:"status"`
	Credits     float64                    `json:"credits"`
	OutputFiles []outputFile               `json:"output_files"`
	ElapsedMs   int64                      `json:"elapsed_ms"`
	Polls       int                        `json:"polls"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, &entity.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	send := input.SendRequest{
		Text:           req.Text,
		ImageURL:       req.ImageURL,
		TimeoutSeconds: req.TimeoutSeconds,
	}
	if req.AgentProfile != "" {
		profile, err := entity.ParseAgentProfile(req.AgentProfile)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		send.AgentProfile = profile
	}

	res, err := s.chat.Send(r.Context(), s.sess, send)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	files := make([]outputFile, 0, len(res.Result.OutputFiles))
	for _, f := range res.Result.OutputFiles {
		files = append(files, outputFile{Name: f.FileName, URL: f.URL})
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Reply:       res.Reply,
		TaskID:      res.Result.Task.ID,
		Status:      res.Result.Task.Status,
		Credits:     res.Result.Credits,
		OutputFiles: files,
		ElapsedMs:   res.Result.Elapsed.Milliseconds(),
		Polls:       res.Result.Polls,
	})
}

type fileView struct {
	entity.RemoteFile
	Category entity.FileCategory `json:"category"`
	Expiry   service.ExpiryInfo  `json:"expiry"`
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.manus.ListFiles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.now()
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, fileView{
			RemoteFile: f,
			Category:   entity.CategoryOf(f.Filename),
			Expiry:     service.Expiry(f.CreatedAt, s.cfg.FileExpiry, now),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFileStats(w http.ResponseWriter, r *http.Request) {
	files, err := s.manus.ListFiles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service.AnalyzeFiles(files))
}

type uploadResponse struct {
	Records []entity.UploadRecord `json:"records"`
	Staged  int                   `json:"staged"`
}

// handleUploadFiles takes a multipart form with one or more "files" parts and
// stages the ones that upload.
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, r, &entity.ValidationError{Field: "files", Message: err.Error()})
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, r, &entity.ValidationError{Field: "files", Message: "no files in request"})
		return
	}

	local := make([]entity.LocalFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.writeError(w, r, fmt.Errorf("open %s: %w", h.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.writeError(w, r, fmt.Errorf("read %s: %w", h.Filename, err))
			return
		}
		local = append(local, entity.LocalFile{
			Name:     h.Filename,
			Data:     data,
			MIMEType: h.Header.Get("Content-Type"),
		})
	}

	records := s.uploader.Upload(r.Context(), local)
	staged := s.uploader.Stage(s.sess, records)
	writeJSON(w, http.StatusOK, uploadResponse{Records: records, Staged: staged})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manus.DeleteFile(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) taskFilter(r *http.Request) (entity.TaskFilter, error) {
	q := r.URL.Query()
	filter := entity.TaskFilter{Limit: s.cfg.TaskLimit, Query: q.Get("query")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, &entity.ValidationError{Field: "limit", Message: "must be a number"}
		}
		if n < entity.MinTaskLimit || n > entity.MaxTaskLimit {
			return filter, &entity.ValidationError{
				Field:   "limit",
				Message: fmt.Sprintf("must be between %d and %d", entity.MinTaskLimit, entity.MaxTaskLimit),
			}
		}
		filter.Limit = n
	}
	for _, raw := range q["status"] {
		for _, part := range strings.Split(raw, ",") {
			if part == "" {
				continue
			}
			st, err := entity.ParseTaskStatus(part)
			if err != nil {
				return filter, &entity.ValidationError{Field: "status", Message: err.Error()}
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	return filter, nil
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) ([]entity.Task, bool) {
	filter, err := s.taskFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	tasks, err := s.manus.ListTasks(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return tasks, true
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if tasks, ok := s.listTasks(w, r); ok {
		writeJSON(w, http.StatusOK, tasks)
	}
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	if tasks, ok := s.listTasks(w, r); ok {
		writeJSON(w, http.StatusOK, service.AnalyzeTasks(tasks))
	}
}

func (s *Server) handleExportTasks(w http.ResponseWriter, r *http.Request) {
	format, err := service.ParseExportFormat(defaultString(r.URL.Query().Get("format"), "json"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tasks, ok := s.listTasks(w, r)
	if !ok {
		return
	}
	body, err := service.ExportTasks(tasks, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDownload(w, service.ExportFilename("manus_tasks", format, s.now()), format, body)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.manus.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.manus.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionView struct {
	entity.SessionStats
	Staged []entity.UploadedFile `json:"staged"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	staged := s.sess.StagedFiles()
	if staged == nil {
		staged = []entity.UploadedFile{}
	}
	writeJSON(w, http.StatusOK, sessionView{SessionStats: s.sess.Stats(), Staged: staged})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	msgs := s.sess.Messages()
	if msgs == nil {
		msgs = []entity.ConversationMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	saved, ok := s.sess.SnapshotAndReset()
	resp := map[string]any{"saved": ok}
	if ok {
		resp["conversation_id"] = saved.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	format, err := service.ParseExportFormat(defaultString(r.URL.Query().Get("format"), "json"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := service.ExportConversation(s.sess.Messages(), format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeDownload(w, service.ExportFilename("manus_chat", format, s.now()), format, body)
}

func (s *Server) handleClearStaged(w http.ResponseWriter, r *http.Request) {
	s.sess.ClearStagedFiles()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.History())
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Restore(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Stats())
}

func writeDownload(w http.ResponseWriter, filename string, format entity.ExportFormat, body string) {
	ct := "text/plain; charset=utf-8"
	switch format {
	case entity.ExportJSON:
		ct = "application/json"
	case entity.ExportMarkdown:
		ct = "text/markdown; charset=utf-8"
	case entity.ExportCSV:
		ct = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = io.WriteString(w, body)
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
