package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/streamingpro/backend/internal/models"
	"github.com/streamingpro/backend/internal/repositories"
)

func TestCategoriaCreateDefaults(t *testing.T) {
	var created models.Categoria
	categorias := &stubCategorias{
		createFn: func(_ context.Context, categoria models.Categoria) error {
			created = categoria
			return nil
		},
	}
	handler := CategoriaHandler{Categorias: categorias, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.Create(rec, newJSONRequest(http.MethodPost, "/api/categorias", `{"name":"  Tech News "}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
	if created.Name != "tech news" {
		t.Fatalf("name = %q, want lowercased and trimmed", created.Name)
	}
	if created.Color != models.DefaultCategoriaColor {
		t.Fatalf("color = %q, want default", created.Color)
	}
	if !created.Active {
		t.Fatal("new categorias must start active")
	}
}

func TestCategoriaCreateConflict(t *testing.T) {
	categorias := &stubCategorias{
		createFn: func(context.Context, models.Categoria) error {
			return repositories.ErrConflict
		},
	}
	handler := CategoriaHandler{Categorias: categorias, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.Create(rec, newJSONRequest(http.MethodPost, "/api/categorias", `{"name":"tech news"}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCategoriaCreateValidation(t *testing.T) {
	handler := CategoriaHandler{Categorias: &stubCategorias{}, NowFunc: fixedNow}

	rec := httptest.NewRecorder()
	handler.Create(rec, newJSONRequest(http.MethodPost, "/api/categorias", `{"color":"#123456"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCategoriaUpdate(t *testing.T) {
	existing := models.Categoria{ID: "cat-1", Name: "tech", Color: "#112233", Active: true}
	var updated models.Categoria
	categorias := &stubCategorias{
		getFn: func(context.Context, string) (models.Categoria, error) {
			if updated.ID != "" {
				return updated, nil
			}
			return existing, nil
		},
		updateFn: func(_ context.Context, categoria models.Categoria) error {
			updated = categoria
			return nil
		},
	}
	handler := CategoriaHandler{Categorias: categorias, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodPut, "/api/categorias/cat-1", `{"name":"Tech And Science","active":false}`)
	req.SetPathValue("id", "cat-1")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if updated.Name != "tech and science" {
		t.Fatalf("name = %q", updated.Name)
	}
	if updated.Active {
		t.Fatal("active=false should be applied")
	}
	if updated.Color != existing.Color {
		t.Fatalf("color = %q, want unchanged", updated.Color)
	}
}

func TestCategoriaDeleteReferenced(t *testing.T) {
	categorias := &stubCategorias{
		deleteFn: func(context.Context, string) error {
			return repositories.ErrConflict
		},
	}
	handler := CategoriaHandler{Categorias: categorias, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodDelete, "/api/categorias/cat-1", "")
	req.SetPathValue("id", "cat-1")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCategoriaDeleteNotFound(t *testing.T) {
	categorias := &stubCategorias{
		deleteFn: func(context.Context, string) error {
			return repositories.ErrNotFound
		},
	}
	handler := CategoriaHandler{Categorias: categorias, NowFunc: fixedNow}

	req := newJSONRequest(http.MethodDelete, "/api/categorias/missing", "")
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
