package service

import (
	"context"

	"studynotes/pkg/ai"
)

type AskRequest struct {
	UserID   string
	Question string
	History  []ai.Message
}

type ChatService interface {
	// Ask answers from the user's notes. An error means nothing was streamed;
	// failures after that arrive as a final fragment with Err set.
	Ask(ctx context.Context, req AskRequest) (<-chan ai.Fragment, error)
}
