package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/pokedex/internal/middleware"
	"github.com/hitoshi/pokedex/internal/model"
)

type mockUserService struct {
	getProfileFn    func(ctx context.Context, username string) (*model.User, error)
	updateProfileFn func(ctx context.Context, username string, update model.UserUpdate) error
}

func (m *mockUserService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, username string, update model.UserUpdate) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, username, update)
	}
	return nil
}

func authedRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	ctx := middleware.ContextWithUsername(req.Context(), "satoshi")
	ctx = middleware.ContextWithToken(ctx, "test-token")
	return req.WithContext(ctx)
}

// TestUserHandler_Me_ExcludesSecrets はプロフィールレスポンスに
// パスワードハッシュとトークンキャッシュが含まれないことを検証する。
func TestUserHandler_Me_ExcludesSecrets(t *testing.T) {
	now := time.Now()
	svc := &mockUserService{
		getProfileFn: func(ctx context.Context, username string) (*model.User, error) {
			return &model.User{
				Username:     "satoshi",
				PasswordHash: "$2a$10$secret-hash",
				Name:         "Satoshi",
				Address:      "Masara Town",
				Age:          10,
				AuthToken:    "cached-token",
				CreatedAt:    now,
				UpdatedAt:    now,
			}, nil
		},
	}
	h := NewUserHandler(svc)

	req := authedRequest(http.MethodGet, "/user/me", "")
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["username"] != "satoshi" {
		t.Errorf("username = %v, want satoshi", resp["username"])
	}
	if resp["name"] != "Satoshi" {
		t.Errorf("name = %v, want Satoshi", resp["name"])
	}
	if resp["age"] != float64(10) {
		t.Errorf("age = %v, want 10", resp["age"])
	}

	raw := rec.Body.String()
	if strings.Contains(raw, "secret-hash") {
		t.Error("response must not contain the password hash")
	}
	if strings.Contains(raw, "cached-token") {
		t.Error("response must not contain the auth token cache")
	}
}

func TestUserHandler_Me_WithoutAuthContext_Returns401(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUserHandler_Update_PassesPartialFields(t *testing.T) {
	var gotUpdate model.UserUpdate
	svc := &mockUserService{
		updateProfileFn: func(ctx context.Context, username string, update model.UserUpdate) error {
			if username != "satoshi" {
				t.Errorf("username = %q, want satoshi", username)
			}
			gotUpdate = update
			return nil
		},
	}
	h := NewUserHandler(svc)

	req := authedRequest(http.MethodPut, "/user/update", `{"name":"Ash","age":11}`)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	if gotUpdate.Name == nil || *gotUpdate.Name != "Ash" {
		t.Error("Name should be set to Ash")
	}
	if gotUpdate.Age == nil || *gotUpdate.Age != 11 {
		t.Error("Age should be set to 11")
	}
	// 省略フィールドはnilのまま
	if gotUpdate.Password != nil {
		t.Error("Password should be nil when omitted")
	}
	if gotUpdate.Address != nil {
		t.Error("Address should be nil when omitted")
	}
}

// TestUserHandler_Update_UsernameInPayloadIsIgnored はペイロードに
// usernameが含まれても認証済みユーザーの識別子が使われることを検証する。
func TestUserHandler_Update_UsernameInPayloadIsIgnored(t *testing.T) {
	var gotUsername string
	svc := &mockUserService{
		updateProfileFn: func(ctx context.Context, username string, update model.UserUpdate) error {
			gotUsername = username
			return nil
		},
	}
	h := NewUserHandler(svc)

	req := authedRequest(http.MethodPut, "/user/update", `{"username":"musashi","name":"Ash"}`)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUsername != "satoshi" {
		t.Errorf("update target = %q, want authenticated user satoshi", gotUsername)
	}
}

func TestUserHandler_Update_InvalidJSON_Returns400(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := authedRequest(http.MethodPut, "/user/update", "{broken")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
