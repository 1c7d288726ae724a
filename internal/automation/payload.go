package automation

import (
	"time"

	"github.com/streamingpro/backend/internal/models"
)

// Content is the normalized text block shared by approval and publish
// payloads.
type Content struct {
	Title        string `json:"title"`
	Topic        string `json:"topic"`
	Script       string `json:"script"`
	LinkedInText string `json:"linkedinText"`
	Tweet        string `json:"tweet"`
	Description  string `json:"description"`
}

// NormalizedContent builds the outbound content block for a video.
func NormalizedContent(v models.Video) Content {
	return Content{
		Title:        Normalize(v.Title),
		Topic:        Normalize(v.Topic),
		Script:       Normalize(v.Script),
		LinkedInText: Normalize(v.LinkedInText),
		Tweet:        Normalize(v.Tweet),
		Description:  Normalize(v.Description),
	}
}

// Metadata describes the originating prompt and the actor behind a request.
type Metadata struct {
	PromptName           string     `json:"promptName"`
	Categoria            string     `json:"categoria"`
	CreatedAt            time.Time  `json:"createdAt"`
	Actor                string     `json:"actor"`
	SentAt               time.Time  `json:"sentAt"`
	WasScheduled         bool       `json:"wasScheduled,omitempty"`
	OriginalScheduledFor *time.Time `json:"originalScheduledFor,omitempty"`
}

// MetadataFor fills the metadata block from a video and the acting identity.
func MetadataFor(v models.Video, actor string, now time.Time) Metadata {
	md := Metadata{
		PromptName: "N/A",
		Categoria:  "N/A",
		CreatedAt:  v.CreatedAt,
		Actor:      actor,
		SentAt:     now,
	}
	if v.Prompt != nil {
		md.PromptName = v.Prompt.Name
		if v.Prompt.Categoria != nil {
			md.Categoria = v.Prompt.Categoria.Name
		}
	}
	return md
}

// GenerationRequest asks the external engine to generate content for a new
// video. RecentTopics lets the generator avoid repeating itself.
type GenerationRequest struct {
	VideoID          string           `json:"videoId"`
	Prompt           GenerationPrompt `json:"prompt"`
	RecentTopics     []string         `json:"recentTopics"`
	RecentTopicCount int              `json:"recentTopicCount"`
	Timestamp        time.Time        `json:"timestamp"`
	CallbackURL      string           `json:"callbackUrl"`
}

// GenerationPrompt carries the template the engine should expand.
type GenerationPrompt struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Body        string               `json:"body"`
	Categoria   *GenerationCategoria `json:"categoria,omitempty"`
}

// GenerationCategoria labels the prompt for the engine.
type GenerationCategoria struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// ApprovalRequest routes a draft through the email approval loop.
type ApprovalRequest struct {
	VideoID     string        `json:"videoId"`
	Content     Content       `json:"content"`
	Metadata    Metadata      `json:"metadata"`
	Email       ApprovalEmail `json:"email"`
	CallbackURL string        `json:"callbackUrl"`
}

// ApprovalEmail feeds the approval-request email template.
type ApprovalEmail struct {
	Sender      string    `json:"sender"`
	SenderEmail string    `json:"senderEmail"`
	Subject     string    `json:"subject"`
	SentAt      time.Time `json:"sentAt"`
}

// PublishRequest submits an approved video for multi-platform publication.
type PublishRequest struct {
	VideoID     string   `json:"videoId"`
	VideoURL    string   `json:"videoUrl"`
	Content     Content  `json:"content"`
	Metadata    Metadata `json:"metadata"`
	CallbackURL string   `json:"callbackUrl"`
}
