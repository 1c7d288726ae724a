package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamingpro/backend/internal/auth"
	"github.com/streamingpro/backend/internal/models"
)

func testUser(t *testing.T) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return models.User{ID: "user-1", Email: "ops@example.com", Name: "Ops", Password: string(hash)}
}

func TestLogin(t *testing.T) {
	user := testUser(t)
	users := &stubUsers{byEmail: map[string]models.User{user.Email: user}}
	sessions := &stubSessions{
		issueFn: func(_ context.Context, userID string) (models.SessionTokens, error) {
			if userID != user.ID {
				t.Fatalf("userID = %q", userID)
			}
			return models.SessionTokens{AccessToken: "access", RefreshToken: "refresh"}, nil
		},
	}
	handler := AuthHandler{Users: users, Sessions: sessions}

	rec := httptest.NewRecorder()
	handler.Login(rec, newJSONRequest(http.MethodPost, "/api/v1/auth/login",
		`{"email":"  OPS@example.com ","password":"hunter2"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	payload := decodeBody(t, rec)
	tokens, _ := payload["tokens"].(map[string]any)
	if tokens["accessToken"] != "access" {
		t.Fatalf("tokens = %v", tokens)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t)
	handler := AuthHandler{
		Users:    &stubUsers{byEmail: map[string]models.User{user.Email: user}},
		Sessions: &stubSessions{},
	}

	rec := httptest.NewRecorder()
	handler.Login(rec, newJSONRequest(http.MethodPost, "/api/v1/auth/login",
		`{"email":"ops@example.com","password":"nope"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	handler := AuthHandler{Users: &stubUsers{}, Sessions: &stubSessions{}}

	rec := httptest.NewRecorder()
	handler.Login(rec, newJSONRequest(http.MethodPost, "/api/v1/auth/login",
		`{"email":"ghost@example.com","password":"hunter2"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRefreshExpired(t *testing.T) {
	sessions := &stubSessions{
		refreshFn: func(context.Context, string) (models.SessionTokens, error) {
			return models.SessionTokens{}, auth.ErrRefreshTokenExpired
		},
	}
	handler := AuthHandler{Users: &stubUsers{}, Sessions: sessions}

	rec := httptest.NewRecorder()
	handler.Refresh(rec, newJSONRequest(http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"stale"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRefresh(t *testing.T) {
	sessions := &stubSessions{
		refreshFn: func(_ context.Context, token string) (models.SessionTokens, error) {
			if token != "valid" {
				t.Fatalf("token = %q", token)
			}
			return models.SessionTokens{AccessToken: "next", RefreshExpiresAt: testNow.Add(time.Hour)}, nil
		},
	}
	handler := AuthHandler{Users: &stubUsers{}, Sessions: sessions}

	rec := httptest.NewRecorder()
	handler.Refresh(rec, newJSONRequest(http.MethodPost, "/api/v1/auth/refresh", `{"refreshToken":"valid"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	protected := RequireAuth(&stubSessions{}, &stubUsers{}, func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a token")
	})

	rec := httptest.NewRecorder()
	protected(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	sessions := &stubSessions{
		validateFn: func(context.Context, string) (string, error) {
			return "", auth.ErrAccessTokenExpired
		},
	}
	protected := RequireAuth(sessions, &stubUsers{}, func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with an expired token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	protected(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthResolvesActor(t *testing.T) {
	user := testUser(t)
	sessions := &stubSessions{
		validateFn: func(_ context.Context, token string) (string, error) {
			if token != "good" {
				t.Fatalf("token = %q", token)
			}
			return user.ID, nil
		},
	}
	users := &stubUsers{byID: map[string]models.User{user.ID: user}}

	var actor string
	protected := RequireAuth(sessions, users, func(_ http.ResponseWriter, r *http.Request) {
		actor = ActorFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()
	protected(rec, req)

	if actor != user.Email {
		t.Fatalf("actor = %q, want %q", actor, user.Email)
	}
}

func TestActorFromContextDefault(t *testing.T) {
	if actor := ActorFromContext(context.Background()); actor != "unknown" {
		t.Fatalf("actor = %q, want unknown", actor)
	}
}
