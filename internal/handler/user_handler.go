package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/pokedex/internal/middleware"
	"github.com/hitoshi/pokedex/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, username string, update model.UserUpdate) error
}

// UserHandler はプロフィール管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// profileResponse はプロフィール取得のレスポンス。
// パスワードハッシュとトークンキャッシュは決して含めない。
type profileResponse struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// updateProfileRequest はプロフィール部分更新のリクエストボディ。
// 省略されたフィールドは変更されない。
// usernameフィールドは受理するが無視する（識別子は不変）。
type updateProfileRequest struct {
	Username string  `json:"username"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Age      *int    `json:"age"`
}

// Me は現在の認証済みユーザーのプロフィールを返す。
// GET /user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, err := middleware.UsernameFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetProfile(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Username:  user.Username,
		Name:      user.Name,
		Address:   user.Address,
		Age:       user.Age,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

// Update はプロフィールを部分更新する。
// PUT /user/update
// ペイロード中のusernameは無視され、passwordは保存前に再ハッシュされる。
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username, err := middleware.UsernameFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONボディを解析できません"))
		return
	}

	update := model.UserUpdate{
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
		Age:      req.Age,
	}

	if err := h.service.UpdateProfile(r.Context(), username, update); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "プロフィールを更新しました。"})
}
