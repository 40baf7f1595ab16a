package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"manus-dashboard/internal/application/port/input"
	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"
)

var _ input.TaskRunner = (*UseCase)(nil)

const DefaultPollInterval = 3 * time.Second

type Config struct {
	PollInterval time.Duration
	// PollDeadline bounds the poll loop locally. Zero leaves the loop unbounded and
	// relies on the remote processing budget.
	PollDeadline time.Duration
}

type UseCase struct {
	manus    output.ManusPort
	progress output.ProgressPort
	logger   output.LoggerPort
	cfg      Config
}

func New(
	manus output.ManusPort,
	progress output.ProgressPort,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if progress == nil {
		progress = output.NopProgress{}
	}
	if logger == nil {
		logger = output.NopLogger{}
	}
	return &UseCase{
		manus:    manus,
		progress: progress,
		logger:   logger,
		cfg:      cfg,
	}
}

// Run blocks until the task reaches a terminal state, forwarding progress.
func (uc *UseCase) Run(ctx context.Context, sess *service.Session, req input.TaskRequest) (*input.TaskResult, error) {
	var final *input.TaskUpdate
	for u := range uc.Start(ctx, sess, req) {
		if u.Final() {
			final = &u
			continue
		}
		if u.Poll == 0 && u.Task != nil {
			uc.progress.ShowTaskCreated(ctx, u.Task)
			continue
		}
		uc.progress.ShowPoll(ctx, u.TaskID, u.Status, u.Poll, u.Elapsed)
	}

	if final == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("task runner stopped without a result")
	}
	return final.Result, final.Err
}

// Start validates the request, creates the task and polls it on a separate
// goroutine. The channel is closed after the final update. Callers that stop
// reading must cancel ctx.
func (uc *UseCase) Start(ctx context.Context, sess *service.Session, req input.TaskRequest) <-chan input.TaskUpdate {
	updates := make(chan input.TaskUpdate, 1)

	go func() {
		defer close(updates)

		send := func(u input.TaskUpdate) {
			select {
			case updates <- u:
			case <-ctx.Done():
			}
		}

		result, err := uc.run(ctx, sess, req, send)
		final := input.TaskUpdate{Result: result, Err: err}
		if result != nil {
			final.TaskID = result.Task.ID
			final.Status = result.Task.Status
			final.Task = result.Task
			final.Poll = result.Polls
			final.Elapsed = result.Elapsed
		}
		delivered := true
		select {
		case updates <- final:
		default:
			select {
			case updates <- final:
			case <-ctx.Done():
				delivered = false
			}
		}

		// Credits count only for results the caller actually receives.
		if delivered && result != nil && sess != nil {
			sess.AddCredits(result.Credits)
		}
	}()

	return updates
}

func (uc *UseCase) run(ctx context.Context, sess *service.Session, req input.TaskRequest, send func(input.TaskUpdate)) (*input.TaskResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	task, err := uc.manus.CreateTask(ctx, entity.CreateTaskRequest{
		InputText:      req.InputText,
		FileIDs:        req.FileIDs,
		ImageURL:       req.ImageURL,
		AgentProfile:   req.AgentProfile,
		PreviousTaskID: req.PreviousTaskID,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		var tce *entity.TaskCreationError
		if !errors.As(err, &tce) {
			err = &entity.TaskCreationError{Err: err}
		}
		uc.logger.Error("Task creation failed", "error", err)
		return nil, err
	}

	if sess != nil {
		sess.RecordTaskCreated(task.ID, req.FileIDs)
	}
	log := uc.logger.WithField("taskId", task.ID)
	log.Info("Task created", "status", task.Status, "profile", req.AgentProfile, "timeoutSeconds", req.TimeoutSeconds)
	send(input.TaskUpdate{TaskID: task.ID, Status: task.Status, Task: task})

	pollCtx := ctx
	if uc.cfg.PollDeadline > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, uc.cfg.PollDeadline)
		defer cancel()
	}

	snapshot, polls, elapsed, err := uc.poll(pollCtx, task.ID, log, send)
	if err != nil {
		return nil, err
	}

	text, files := ExtractOutput(snapshot)
	credits := snapshot.CreditUsage()

	log.Info("Task finished",
		"status", snapshot.Status,
		"polls", polls,
		"elapsedMs", elapsed.Milliseconds(),
		"credits", credits,
		"outputFiles", len(files),
	)

	return &input.TaskResult{
		Task:        snapshot,
		Text:        text,
		OutputFiles: files,
		Credits:     credits,
		Elapsed:     elapsed,
		Polls:       polls,
	}, nil
}

func (uc *UseCase) poll(ctx context.Context, taskID string, log output.LoggerPort, send func(input.TaskUpdate)) (*entity.Task, int, time.Duration, error) {
	start := time.Now()

	for poll := 1; ; poll++ {
		if err := ctx.Err(); err != nil {
			return nil, poll - 1, time.Since(start), err
		}

		snapshot, err := uc.manus.GetTask(ctx, taskID)
		elapsed := time.Since(start)
		if err != nil {
			log.Error("Polling failed", "poll", poll, "error", err)
			return nil, poll, elapsed, fmt.Errorf("poll task %s: %w", taskID, err)
		}

		log.Debug("Polled task", "poll", poll, "status", snapshot.Status)

		if snapshot.Status.Terminal() {
			return snapshot, poll, elapsed, nil
		}

		send(input.TaskUpdate{TaskID: taskID, Status: snapshot.Status, Task: snapshot, Poll: poll, Elapsed: elapsed})

		timer := time.NewTimer(uc.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, poll, time.Since(start), ctx.Err()
		case <-timer.C:
		}
	}
}

func validate(req input.TaskRequest) error {
	if strings.TrimSpace(req.InputText) == "" {
		return &entity.ValidationError{Field: "input_text", Message: "must not be empty"}
	}
	if _, err := entity.ParseAgentProfile(string(req.AgentProfile)); err != nil {
		return err
	}
	return entity.ValidateTimeout(req.TimeoutSeconds)
}

// ExtractOutput joins the assistant text items with newlines and collects the
// generated files, both in message order.
func ExtractOutput(task *entity.Task) (string, []entity.OutputFileContent) {
	var texts []string
	var files []entity.OutputFileContent
	for _, msg := range task.Output {
		if msg.Role != entity.RoleAssistant {
			continue
		}
		for _, item := range msg.Content {
			switch c := item.(type) {
			case entity.TextContent:
				if c.Text != "" {
					texts = append(texts, c.Text)
				}
			case entity.OutputFileContent:
				files = append(files, c)
			case entity.InputFileContent, entity.InputImageContent, entity.UnknownContent:
			}
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), files
}
