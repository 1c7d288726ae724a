package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamingpro/backend/internal/logging"
	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

// PromptHandler implements prompt template CRUD.
type PromptHandler struct {
	Prompts repositories.PromptRepository
	NowFunc func() time.Time
}

func (h PromptHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// List handles GET /api/prompts requests. By default only active prompts
// are returned; pass all=true to include deactivated ones.
func (h PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activeOnly := r.URL.Query().Get("all") != "true"

	prompts, err := h.Prompts.List(ctx, activeOnly)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list prompts", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list prompts")
		return
	}

	out := make([]promptResponse, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, toPromptResponse(p))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"prompts": out})
}

// Create handles POST /api/prompts requests.
func (h PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Body = strings.TrimSpace(req.Body)
	if req.Name == "" || req.Body == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and body are required")
		return
	}

	prompt := models.Prompt{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Body:        req.Body,
		CategoriaID: normalizeID(req.CategoriaID),
		Active:      true,
		CreatedAt:   h.now(),
	}

	if err := h.Prompts.Create(ctx, prompt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusBadRequest, "categoria not found")
			return
		}
		logger.Error("failed to create prompt", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create prompt")
		return
	}

	created, err := h.Prompts.Get(ctx, prompt.ID)
	if err != nil {
		logger.Error("failed to reload prompt", "promptId", prompt.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create prompt")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toPromptResponse(created))
}

// Get handles GET /api/prompts/{id} requests.
func (h PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	prompt, err := h.Prompts.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.respondPromptError(ctx, w, r.PathValue("id"), err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toPromptResponse(prompt))
}

// Update handles PUT /api/prompts/{id} requests.
func (h PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	id := r.PathValue("id")

	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt, err := h.Prompts.Get(ctx, id)
	if err != nil {
		h.respondPromptError(ctx, w, id, err)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		prompt.Name = name
	}
	if body := strings.TrimSpace(req.Body); body != "" {
		prompt.Body = body
	}
	prompt.Description = strings.TrimSpace(req.Description)
	prompt.CategoriaID = normalizeID(req.CategoriaID)
	if req.Active != nil {
		prompt.Active = *req.Active
	}

	if err := h.Prompts.Update(ctx, prompt); err != nil {
		logger.Error("failed to update prompt", "promptId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update prompt")
		return
	}

	updated, err := h.Prompts.Get(ctx, id)
	if err != nil {
		h.respondPromptError(ctx, w, id, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toPromptResponse(updated))
}

// Delete handles DELETE /api/prompts/{id} requests. A prompt that already
// produced videos is deactivated instead of removed so its history stays
// attributable.
func (h PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	id := r.PathValue("id")

	count, err := h.Prompts.VideoCount(ctx, id)
	if err != nil {
		h.respondPromptError(ctx, w, id, err)
		return
	}

	if count > 0 {
		if err := h.Prompts.Deactivate(ctx, id); err != nil {
			h.respondPromptError(ctx, w, id, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, map[string]any{
			"deleted":     false,
			"deactivated": true,
			"videoCount":  count,
		})
		return
	}

	if err := h.Prompts.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "prompt is referenced by existing videos")
			return
		}
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "prompt not found")
			return
		}
		logger.Error("failed to delete prompt", "promptId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete prompt")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"deleted": true})
}

// Duplicate handles POST /api/prompts/{id}/duplicate requests, creating an
// active copy the operator can tweak without touching the original.
func (h PromptHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	id := r.PathValue("id")

	original, err := h.Prompts.Get(ctx, id)
	if err != nil {
		h.respondPromptError(ctx, w, id, err)
		return
	}

	copyPrompt := models.Prompt{
		ID:          uuid.NewString(),
		Name:        original.Name + " (copy)",
		Description: original.Description,
		Body:        original.Body,
		CategoriaID: original.CategoriaID,
		Active:      true,
		CreatedAt:   h.now(),
	}

	if err := h.Prompts.Create(ctx, copyPrompt); err != nil {
		logger.Error("failed to duplicate prompt", "promptId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to duplicate prompt")
		return
	}

	created, err := h.Prompts.Get(ctx, copyPrompt.ID)
	if err != nil {
		logger.Error("failed to reload prompt", "promptId", copyPrompt.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to duplicate prompt")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toPromptResponse(created))
}

func (h PromptHandler) respondPromptError(ctx context.Context, w http.ResponseWriter, id string, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "prompt not found")
		return
	}
	logging.FromContext(ctx).Error("prompt lookup failed", "promptId", id, "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "failed to load prompt")
}

// normalizeID maps an absent or blank optional id to nil.
func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type promptRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Body        string  `json:"body"`
	CategoriaID *string `json:"categoriaId"`
	Active      *bool   `json:"active"`
}

type promptResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Body        string             `json:"body"`
	CategoriaID *string            `json:"categoriaId,omitempty"`
	Categoria   *categoriaResponse `json:"categoria,omitempty"`
	Active      bool               `json:"active"`
	VideoCount  int                `json:"videoCount"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func toPromptResponse(prompt models.Prompt) promptResponse {
	resp := promptResponse{
		ID:          prompt.ID,
		Name:        prompt.Name,
		Description: prompt.Description,
		Body:        prompt.Body,
		CategoriaID: prompt.CategoriaID,
		Active:      prompt.Active,
		VideoCount:  prompt.VideoCount,
		CreatedAt:   prompt.CreatedAt,
	}
	if prompt.Categoria != nil {
		categoria := toCategoriaResponse(*prompt.Categoria)
		resp.Categoria = &categoria
	}
	return resp
}
