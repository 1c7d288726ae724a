package automation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// The engine's callback payloads are not fully under our control and have
// drifted between top-level fields and a nested "body" wrapper, English and
// Spanish keys. Each parser below maps every accepted shape into one
// canonical struct before any business logic runs.

// ErrMissingVideoID marks a callback that cannot be correlated to a video.
var ErrMissingVideoID = errors.New("callback payload missing videoId")

// GenerationResult is the canonical outcome of a generation callback.
type GenerationResult struct {
	VideoID  string
	Success  bool
	Content  Content
	Error    string
	Metadata map[string]any
}

// Complete reports whether the generated content carries the required fields.
func (r GenerationResult) Complete() bool {
	return r.Content.Title != "" && r.Content.Topic != "" && r.Content.Script != ""
}

// ApprovalResult is the canonical outcome of an approval callback.
type ApprovalResult struct {
	VideoID     string
	Approved    bool
	Comments    string
	Approver    string
	RespondedAt string
}

// PlatformURLs carries the per-platform locations reported after publication.
type PlatformURLs struct {
	VideoHost string
	YouTube   string
	LinkedIn  string
	Twitter   string
}

// PublicationResult is the canonical outcome of a publication callback.
type PublicationResult struct {
	VideoID     string
	Success     bool
	VideoURL    string
	URLs        PlatformURLs
	Error       string
	PublishedAt string
}

// ParseGenerationResult normalizes a generation callback body.
func ParseGenerationResult(body []byte) (GenerationResult, error) {
	raw, err := decode(body)
	if err != nil {
		return GenerationResult{}, err
	}

	res := GenerationResult{
		VideoID: stringField(raw, "videoId"),
		Success: boolField(raw, true, "success"),
		Error:   stringField(raw, "error"),
	}
	if res.VideoID == "" {
		return GenerationResult{}, ErrMissingVideoID
	}

	// Content may arrive nested or as top-level fields alongside videoId.
	content := raw
	if nested, ok := raw["content"].(map[string]any); ok {
		content = nested
	}
	res.Content = Content{
		Title:        stringField(content, "title", "titulo"),
		Topic:        stringField(content, "topic", "tema"),
		Script:       stringField(content, "script", "guion"),
		LinkedInText: stringField(content, "linkedinText", "textoLinkedin"),
		Tweet:        stringField(content, "tweet"),
		Description:  stringField(content, "description", "descripcion"),
	}

	if md, ok := raw["metadata"].(map[string]any); ok {
		res.Metadata = md
	}

	return res, nil
}

// ParseApprovalResult normalizes an approval callback body.
func ParseApprovalResult(body []byte) (ApprovalResult, error) {
	raw, err := decode(body)
	if err != nil {
		return ApprovalResult{}, err
	}

	res := ApprovalResult{
		VideoID:     stringField(raw, "videoId"),
		Approved:    boolField(raw, true, "approved", "aprobado"),
		Comments:    stringField(raw, "comments", "comentarios", "feedback"),
		Approver:    stringField(raw, "approvedBy", "aprobadoPor", "approver"),
		RespondedAt: stringField(raw, "respondedAt", "fechaRespuesta"),
	}
	if res.VideoID == "" {
		return ApprovalResult{}, ErrMissingVideoID
	}

	return res, nil
}

// ParsePublicationResult normalizes a publication callback body.
func ParsePublicationResult(body []byte) (PublicationResult, error) {
	raw, err := decode(body)
	if err != nil {
		return PublicationResult{}, err
	}

	res := PublicationResult{
		VideoID:     stringField(raw, "videoId"),
		Success:     boolField(raw, true, "success", "publicacionExitosa"),
		VideoURL:    stringField(raw, "videoUrl"),
		Error:       stringField(raw, "error"),
		PublishedAt: stringField(raw, "publishedAt", "fechaPublicacion"),
	}
	if res.VideoID == "" {
		return PublicationResult{}, ErrMissingVideoID
	}

	res.URLs = PlatformURLs{VideoHost: stringField(raw, "videoHostUrl", "urlHeygen")}

	// Platform URLs arrive either as a map of URLs or as booleans flagging
	// which platforms took the main video URL.
	for _, key := range []string{"platforms", "plataformas", "urlsPublicacion"} {
		platforms, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		res.URLs.YouTube = platformURL(platforms, "youtube", res.VideoURL, res.URLs.YouTube)
		res.URLs.LinkedIn = platformURL(platforms, "linkedin", res.VideoURL, res.URLs.LinkedIn)
		res.URLs.Twitter = platformURL(platforms, "twitter", res.VideoURL, res.URLs.Twitter)
	}

	return res, nil
}

// decode unmarshals the payload and unwraps a nested "body" object, letting
// wrapper-level fields win only when absent inside the body.
func decode(body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode callback payload: %w", err)
	}

	nested, ok := raw["body"].(map[string]any)
	if !ok {
		return raw, nil
	}

	merged := make(map[string]any, len(nested)+len(raw))
	for k, v := range raw {
		if k == "body" {
			continue
		}
		merged[k] = v
	}
	for k, v := range nested {
		merged[k] = v
	}
	return merged, nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// boolField returns the first present boolean among keys, or fallback. The
// engine omits success flags on the happy path, hence the default-true calls.
func boolField(m map[string]any, fallback bool, keys ...string) bool {
	for _, key := range keys {
		if v, ok := m[key].(bool); ok {
			return v
		}
	}
	return fallback
}

func platformURL(platforms map[string]any, key, mainURL, current string) string {
	switch v := platforms[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case bool:
		if v && mainURL != "" {
			return mainURL
		}
	}
	return current
}
