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

// CategoriaHandler implements categoria CRUD. Names are stored lowercase so
// uniqueness is case-insensitive.
type CategoriaHandler struct {
	Categorias repositories.CategoriaRepository
	NowFunc    func() time.Time
}

func (h CategoriaHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

// List handles GET /api/categorias requests.
func (h CategoriaHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activeOnly := r.URL.Query().Get("all") != "true"

	categorias, err := h.Categorias.List(ctx, activeOnly)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list categorias", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list categorias")
		return
	}

	out := make([]categoriaResponse, 0, len(categorias))
	for _, c := range categorias {
		out = append(out, toCategoriaResponse(c))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"categorias": out})
}

// Create handles POST /api/categorias requests.
func (h CategoriaHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req categoriaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = models.DefaultCategoriaColor
	}

	categoria := models.Categoria{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		Active:    true,
		CreatedAt: h.now(),
	}

	if err := h.Categorias.Create(ctx, categoria); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "a categoria with this name already exists")
			return
		}
		logger.Error("failed to create categoria", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create categoria")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toCategoriaResponse(categoria))
}

// Update handles PUT /api/categorias/{id} requests.
func (h CategoriaHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	id := r.PathValue("id")

	var req categoriaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	categoria, err := h.Categorias.Get(ctx, id)
	if err != nil {
		h.respondCategoriaError(ctx, w, id, err)
		return
	}

	if name := strings.ToLower(strings.TrimSpace(req.Name)); name != "" {
		categoria.Name = name
	}
	if color := strings.TrimSpace(req.Color); color != "" {
		categoria.Color = color
	}
	if req.Active != nil {
		categoria.Active = *req.Active
	}

	if err := h.Categorias.Update(ctx, categoria); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "a categoria with this name already exists")
			return
		}
		logger.Error("failed to update categoria", "categoriaId", id, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update categoria")
		return
	}

	updated, err := h.Categorias.Get(ctx, id)
	if err != nil {
		h.respondCategoriaError(ctx, w, id, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toCategoriaResponse(updated))
}

// Delete handles DELETE /api/categorias/{id} requests.
func (h CategoriaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := h.Categorias.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "categoria is referenced by existing prompts")
			return
		}
		h.respondCategoriaError(ctx, w, id, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"deleted": true})
}

func (h CategoriaHandler) respondCategoriaError(ctx context.Context, w http.ResponseWriter, id string, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "categoria not found")
		return
	}
	logging.FromContext(ctx).Error("categoria lookup failed", "categoriaId", id, "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "failed to load categoria")
}

type categoriaRequest struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Active *bool  `json:"active"`
}

type categoriaResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Active      bool      `json:"active"`
	PromptCount int       `json:"promptCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toCategoriaResponse(categoria models.Categoria) categoriaResponse {
	return categoriaResponse{
		ID:          categoria.ID,
		Name:        categoria.Name,
		Color:       categoria.Color,
		Active:      categoria.Active,
		PromptCount: categoria.PromptCount,
		CreatedAt:   categoria.CreatedAt,
	}
}
