package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/pokedex/internal/middleware"
	"github.com/hitoshi/pokedex/internal/model"
)

type mockAuthService struct {
	signupFn func(ctx context.Context, username, password, name, address string, age int) (string, error)
	loginFn  func(ctx context.Context, username, password string) (string, error)
	logoutFn func(ctx context.Context, token string) error
}

func (m *mockAuthService) Signup(ctx context.Context, username, password, name, address string, age int) (string, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, username, password, name, address, age)
	}
	return "", nil
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return "", nil
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v\nraw: %s", err, rec.Body.String())
	}
	return body
}

func TestAuthHandler_Signup_ReturnsToken(t *testing.T) {
	svc := &mockAuthService{
		signupFn: func(ctx context.Context, username, password, name, address string, age int) (string, error) {
			if username != "satoshi" || password != "pikapika" {
				t.Errorf("unexpected credentials: %q/%q", username, password)
			}
			if name != "Satoshi" || address != "Masara Town" || age != 10 {
				t.Errorf("unexpected profile: %q/%q/%d", name, address, age)
			}
			return "issued-token", nil
		},
	}
	h := NewAuthHandler(svc)

	body := `{"username":"satoshi","password":"pikapika","name":"Satoshi","address":"Masara Town","age":10}`
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken != "issued-token" {
		t.Errorf("access_token = %q, want issued-token", resp.AccessToken)
	}
	if resp.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", resp.TokenType)
	}
}

// TestAuthHandler_Signup_DuplicateUsername_Returns400 はユーザー名重複が
// 409ではなく400になることを検証する。
func TestAuthHandler_Signup_DuplicateUsername_Returns400(t *testing.T) {
	svc := &mockAuthService{
		signupFn: func(ctx context.Context, username, password, name, address string, age int) (string, error) {
			return "", model.ErrUserExists
		},
	}
	h := NewAuthHandler(svc)

	body := `{"username":"satoshi","password":"pikapika"}`
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if got := decodeErrorBody(t, rec).Code; got != model.ErrCodeUserExists {
		t.Errorf("error code = %q, want %q", got, model.ErrCodeUserExists)
	}
}

func TestAuthHandler_Signup_MissingFields_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	for _, body := range []string{
		`{"password":"pikapika"}`,
		`{"username":"satoshi"}`,
		`{}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Signup(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestAuthHandler_Signup_InvalidJSON_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Login_ReturnsToken(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, error) {
			return "fresh-token", nil
		},
	}
	h := NewAuthHandler(svc)

	body := `{"username":"satoshi","password":"pikapika"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken != "fresh-token" {
		t.Errorf("access_token = %q, want fresh-token", resp.AccessToken)
	}
}

func TestAuthHandler_Login_BadCredentials_Returns401(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, error) {
			return "", model.ErrUnauthorized
		},
	}
	h := NewAuthHandler(svc)

	body := `{"username":"satoshi","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want %q", got, "Bearer")
	}
}

func TestAuthHandler_Logout_RevokesPresentedToken(t *testing.T) {
	var revoked string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer presented-token")
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if revoked != "presented-token" {
		t.Errorf("revoked token = %q, want presented-token", revoked)
	}
}

// TestAuthHandler_Logout_DoesNotValidateToken は検証を通らないトークン
// でも失効処理に渡されることを検証する。失効は検証に依存しない。
func TestAuthHandler_Logout_DoesNotValidateToken(t *testing.T) {
	var revoked string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if revoked != "not-a-jwt" {
		t.Errorf("revoked token = %q, want not-a-jwt", revoked)
	}
}

func TestAuthHandler_Logout_WithoutAuthorizationHeader_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
