package handlers

import (
	"net/http"
	"time"

	"github.com/streamingpro/backend/internal/repositories"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users      UserStore
	Sessions   SessionManager
	Videos     repositories.VideoRepository
	Prompts    repositories.PromptRepository
	Categorias repositories.CategoriaRepository
	Logs       repositories.WorkflowLogRepository

	Generator GenerationService
	Approvals ApprovalService
	Publisher PublishService
	Cleanup   CleanupService

	CallbackLimiter RateLimiter
	NowFunc         func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Operator
// endpoints require a bearer token; callbacks from the automation engine are
// rate limited instead, and the internal publish trigger is left open for the
// host's cron entry.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authHandler := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	videoHandler := VideoHandler{Videos: deps.Videos, Logs: deps.Logs, Prompts: deps.Prompts, NowFunc: deps.NowFunc}
	promptHandler := PromptHandler{Prompts: deps.Prompts, NowFunc: deps.NowFunc}
	categoriaHandler := CategoriaHandler{Categorias: deps.Categorias, NowFunc: deps.NowFunc}
	webhookHandler := WebhookHandler{
		Prompts:   deps.Prompts,
		Generator: deps.Generator,
		Approvals: deps.Approvals,
		Publisher: deps.Publisher,
	}
	callbackHandler := CallbackHandler{
		Videos:  deps.Videos,
		Logs:    deps.Logs,
		Limiter: deps.CallbackLimiter,
		NowFunc: deps.NowFunc,
	}
	adminHandler := AdminHandler{Cleanup: deps.Cleanup}

	operator := func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAuth(deps.Sessions, deps.Users, next)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)

	mux.HandleFunc("GET /api/videos", operator(videoHandler.List))
	mux.HandleFunc("POST /api/videos/create-draft", operator(videoHandler.CreateDraft))
	mux.HandleFunc("PUT /api/videos/{id}/update", operator(videoHandler.Update))
	mux.HandleFunc("POST /api/videos/auto-approve", operator(videoHandler.AutoApprove))
	mux.HandleFunc("POST /api/videos/schedule", operator(videoHandler.Schedule))
	mux.HandleFunc("POST /api/videos/{id}/reschedule", operator(videoHandler.Reschedule))
	mux.HandleFunc("POST /api/videos/{id}/cancel-schedule", operator(videoHandler.CancelSchedule))
	mux.HandleFunc("POST /api/videos/{id}/cancel", operator(videoHandler.Cancel))
	mux.HandleFunc("POST /api/videos/{id}/retry", operator(videoHandler.Retry))

	mux.HandleFunc("GET /api/prompts", operator(promptHandler.List))
	mux.HandleFunc("POST /api/prompts", operator(promptHandler.Create))
	mux.HandleFunc("GET /api/prompts/{id}", operator(promptHandler.Get))
	mux.HandleFunc("PUT /api/prompts/{id}", operator(promptHandler.Update))
	mux.HandleFunc("DELETE /api/prompts/{id}", operator(promptHandler.Delete))
	mux.HandleFunc("POST /api/prompts/{id}/duplicate", operator(promptHandler.Duplicate))

	mux.HandleFunc("GET /api/categorias", operator(categoriaHandler.List))
	mux.HandleFunc("POST /api/categorias", operator(categoriaHandler.Create))
	mux.HandleFunc("PUT /api/categorias/{id}", operator(categoriaHandler.Update))
	mux.HandleFunc("DELETE /api/categorias/{id}", operator(categoriaHandler.Delete))

	mux.HandleFunc("POST /api/webhooks/generate-content", operator(webhookHandler.GenerateContent))
	mux.HandleFunc("POST /api/webhooks/send-for-approval", operator(webhookHandler.SendForApproval))
	mux.HandleFunc("POST /api/webhooks/publicar-video", operator(webhookHandler.PublicarVideo))

	mux.HandleFunc("POST /api/webhooks/content-generated", callbackHandler.ContentGenerated)
	mux.HandleFunc("POST /api/webhooks/approval-response", callbackHandler.ApprovalResponse)
	mux.HandleFunc("POST /api/webhooks/publicacion-response", callbackHandler.PublicacionResponse)

	mux.HandleFunc("POST /api/internal/publish-scheduled", webhookHandler.PublishScheduled)

	mux.HandleFunc("POST /api/admin/cleanup-logs", operator(adminHandler.CleanupLogs))
	mux.HandleFunc("DELETE /api/admin/cleanup-videos", operator(adminHandler.CleanupVideos))
}
