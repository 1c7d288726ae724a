package models

import (
	"time"

	"github.com/streamingpro/backend/internal/lifecycle"
)

// Video is the unit of work moving through generation, approval and
// publication. Content fields are filled in progressively; timestamps other
// than CreatedAt stay nil until the corresponding transition happens.
type Video struct {
	ID       string
	PromptID *string

	Title        string
	Topic        string
	Script       string
	LinkedInText string
	Tweet        string
	Description  string

	State    lifecycle.State
	VideoURL string

	// Per-platform URLs reported back after a successful publication.
	VideoHostURL string
	YouTubeURL   string
	LinkedInURL  string
	TwitterURL   string

	CreatedAt    time.Time
	ApprovedAt   *time.Time
	PublishedAt  *time.Time
	ScheduledFor *time.Time

	Prompt *Prompt
}

// VideoContent groups the operator-editable text fields of a video.
type VideoContent struct {
	Title        string `json:"title"`
	Topic        string `json:"topic"`
	Script       string `json:"script"`
	LinkedInText string `json:"linkedinText"`
	Tweet        string `json:"tweet"`
	Description  string `json:"description"`
}

// Content returns the video's editable text fields as one block.
func (v Video) Content() VideoContent {
	return VideoContent{
		Title:        v.Title,
		Topic:        v.Topic,
		Script:       v.Script,
		LinkedInText: v.LinkedInText,
		Tweet:        v.Tweet,
		Description:  v.Description,
	}
}

// PlatformURLs carries the per-platform locations reported after a
// successful publication. Empty fields leave the stored value untouched.
type PlatformURLs struct {
	VideoHost string
	YouTube   string
	LinkedIn  string
	Twitter   string
}

// Prompt is a reusable instruction template fed to the external generator.
type Prompt struct {
	ID          string
	Name        string
	Description string
	Body        string
	CategoriaID *string
	Active      bool
	CreatedAt   time.Time

	Categoria  *Categoria
	VideoCount int
}

// Categoria labels prompts. Names are stored lowercase and are unique.
type Categoria struct {
	ID          string
	Name        string
	Color       string
	Active      bool
	CreatedAt   time.Time
	PromptCount int
}

// DefaultCategoriaColor is applied when the operator does not pick one.
const DefaultCategoriaColor = "#6B7280"

// WorkflowLog is an append-only audit record. VideoID is a soft reference:
// rows may outlive their video and are swept by the cleanup job.
type WorkflowLog struct {
	ID        string
	VideoID   string
	Action    string
	Details   map[string]any
	CreatedAt time.Time
}

// User represents an operator account.
type User struct {
	ID        string
	Email     string
	Name      string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated
// operators.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
