package videos

import "errors"

var (
	// ErrMissingVideoURL indicates a publish was requested without a
	// rendered video URL to hand to the publishing workflow.
	ErrMissingVideoURL = errors.New("video url must be provided")
	// ErrPromptInactive indicates generation was requested with a
	// deactivated prompt.
	ErrPromptInactive = errors.New("prompt is not active")
)
