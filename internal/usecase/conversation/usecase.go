package conversation

import (
	"context"
	"time"

	"manus-dashboard/internal/application/port/input"
	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"
)

var _ input.Conversation = (*UseCase)(nil)

// FallbackReply is shown when a task finishes without any assistant text.
const FallbackReply = "Task completed successfully"

type UseCase struct {
	runner   input.TaskRunner
	logger   output.LoggerPort
	defaults input.SendRequest
	now      func() time.Time
}

// New builds the chat flow. Requests that leave the profile or timeout unset get
// the values from defaults.
func New(runner input.TaskRunner, logger output.LoggerPort, defaults input.SendRequest) *UseCase {
	if logger == nil {
		logger = output.NopLogger{}
	}
	return &UseCase{
		runner:   runner,
		logger:   logger,
		defaults: defaults,
		now:      time.Now,
	}
}

// Send runs one chat turn: the staged files are attached, the task continues the
// session's current task, and both sides of the exchange are appended only once
// the task has reached a terminal state. Turns on one session run one at a time,
// so each staged file goes to a single task and continuation follows turn order.
func (uc *UseCase) Send(ctx context.Context, sess *service.Session, req input.SendRequest) (*input.SendResult, error) {
	if req.AgentProfile == "" {
		req.AgentProfile = uc.defaults.AgentProfile
	}
	if req.TimeoutSeconds == 0 {
		req.TimeoutSeconds = uc.defaults.TimeoutSeconds
	}

	endTurn, err := sess.BeginTurn(ctx)
	if err != nil {
		return nil, err
	}
	defer endTurn()

	staged := sess.StagedFiles()
	fileIDs := make([]string, 0, len(staged))
	fileNames := make([]string, 0, len(staged))
	for _, f := range staged {
		fileIDs = append(fileIDs, f.ID)
		fileNames = append(fileNames, f.Name)
	}

	sentAt := uc.now()
	result, err := uc.runner.Run(ctx, sess, input.TaskRequest{
		InputText:      req.Text,
		FileIDs:        fileIDs,
		ImageURL:       req.ImageURL,
		AgentProfile:   req.AgentProfile,
		PreviousTaskID: sess.CurrentTaskID(),
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		uc.logger.Warn("Chat turn failed", "session", sess.ID(), "error", err)
		return nil, err
	}

	user := entity.ConversationMessage{
		Role:      entity.RoleUser,
		Content:   req.Text,
		Timestamp: sentAt.Format(entity.TimestampLayout),
	}
	if len(fileNames) > 0 {
		user.Files = fileNames
	}
	sess.AppendMessage(user)

	reply := assistantMessage(result, uc.now())
	sess.AppendMessage(reply)

	uc.logger.Info("Chat turn completed",
		"session", sess.ID(),
		"taskId", result.Task.ID,
		"status", result.Task.Status,
		"credits", result.Credits,
	)
	return &input.SendResult{Reply: reply, Result: result}, nil
}

func assistantMessage(result *input.TaskResult, at time.Time) entity.ConversationMessage {
	text := result.Text
	if text == "" {
		text = FallbackReply
	}
	msg := entity.ConversationMessage{
		Role:      entity.RoleAssistant,
		Content:   text,
		Timestamp: at.Format(entity.TimestampLayout),
		TaskURL:   result.Task.TaskURL(),
	}
	if result.Credits > 0 {
		credits := result.Credits
		msg.Credits = &credits
	}
	for _, f := range result.OutputFiles {
		msg.OutputFiles = append(msg.OutputFiles, f.FileName)
	}
	return msg
}
