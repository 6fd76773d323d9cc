package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Image is a raw image payload attached to a user turn.
type Image struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Document is extracted document text attached to a user turn.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Turn represents one user submission or one agent reply.
// Turns are never mutated after they are appended to a session.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Image     *Image    `json:"image,omitempty"`
	Document  *Document `json:"document,omitempty"`
	Result    *Result   `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserTurn creates a user turn stamped with a fresh id.
func NewUserTurn(text string, img *Image, doc *Document) Turn {
	return Turn{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Content:   text,
		Image:     img,
		Document:  doc,
		Timestamp: time.Now(),
	}
}

// NewAgentTurn creates an agent turn whose content is the result's final text.
func NewAgentTurn(res Result) Turn {
	r := res
	return Turn{
		ID:        uuid.New().String(),
		Role:      RoleAgent,
		Content:   res.FinalResponse,
		Result:    &r,
		Timestamp: time.Now(),
	}
}

// NewSystemTurn creates an agent turn carrying a plain notice and no result.
func NewSystemTurn(text string) Turn {
	return Turn{
		ID:        uuid.New().String(),
		Role:      RoleAgent,
		Content:   text,
		Timestamp: time.Now(),
	}
}
