package input

import (
	"context"

	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"
)

type SendRequest struct {
	Text           string
	ImageURL       string
	AgentProfile   entity.AgentProfile
	TimeoutSeconds int
}

type SendResult struct {
	Reply  entity.ConversationMessage
	Result *TaskResult
}

type Conversation interface {
	Send(ctx context.Context, sess *service.Session, req SendRequest) (*SendResult, error)
}
