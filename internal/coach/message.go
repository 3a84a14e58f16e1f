package coach

import (
	"time"

	"github.com/google/uuid"
)

const (
	SenderUser  = "user"
	SenderCoach = "coach"

	ContextWorkout    = "workout"
	ContextDiet       = "diet"
	ContextMotivation = "motivation"
	ContextGeneral    = "general"
)

// NormalizeContext maps anything outside the known chat contexts to general.
func NormalizeContext(chatContext string) string {
	switch chatContext {
	case ContextWorkout, ContextDiet, ContextMotivation, ContextGeneral:
		return chatContext
	default:
		return ContextGeneral
	}
}

type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Sender    string    `json:"sender"`
	Context   string    `json:"context"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserMessage(userID, chatContext, message string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Sender:    SenderUser,
		Context:   chatContext,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

func NewCoachMessage(userID, chatContext, message string) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Sender:    SenderCoach,
		Context:   chatContext,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
