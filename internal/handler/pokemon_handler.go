package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/pokedex/internal/model"
)

// PokemonServiceInterface はカタログハンドラーが必要とするサービスインターフェース。
type PokemonServiceInterface interface {
	List(ctx context.Context) ([]model.PokemonDoc, error)
	Get(ctx context.Context, id int) (model.PokemonDoc, error)
	Create(ctx context.Context, doc model.PokemonDoc) error
	Update(ctx context.Context, id int, patch model.PokemonDoc) error
	Delete(ctx context.Context, id int) error
}

// PokemonHandler はカタログCRUDのHTTPハンドラー。
// 全エンドポイントが認証ミドルウェアの背後に置かれる。
type PokemonHandler struct {
	service PokemonServiceInterface
}

// NewPokemonHandler はPokemonHandlerを生成する。
func NewPokemonHandler(service PokemonServiceInterface) *PokemonHandler {
	return &PokemonHandler{service: service}
}

// List は全レコードを返す。
// GET /pokemon
func (h *PokemonHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// Get は指定idのレコードを返す。
// GET /pokemon/{id}
func (h *PokemonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pokemonID(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		if err == model.ErrNotFound {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewPokemonNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// Create はレコードを追加する。
// PUT /pokemon/add
func (h *PokemonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var doc model.PokemonDoc
	if err := decodeJSON(r, &doc); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONボディを解析できません"))
		return
	}

	if err := h.service.Create(r.Context(), doc); err != nil {
		if _, idErr := doc.ID(); idErr != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("整数のidフィールドは必須です"))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "ポケモンを追加しました。"})
}

// Update は指定idのレコードを部分更新する。
// PATCH /pokemon/{id}
// ペイロード中のidは無視される（識別子は不変）。
func (h *PokemonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pokemonID(w, r)
	if !ok {
		return
	}

	var patch model.PokemonDoc
	if err := decodeJSON(r, &patch); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONボディを解析できません"))
		return
	}

	if err := h.service.Update(r.Context(), id, patch); err != nil {
		if err == model.ErrNotFound {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewPokemonNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "ポケモンを更新しました。"})
}

// Delete は指定idのレコードを削除する。
// DELETE /pokemon/{id}
func (h *PokemonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pokemonID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if err == model.ErrNotFound {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewPokemonNotFoundError(id))
			return
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "ポケモンを削除しました。"})
}

// pokemonID はURLパラメータからidを取り出す。
// 整数でない場合は400を書き込んでfalseを返す。
func pokemonID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("idは整数で指定してください"))
		return 0, false
	}
	return id, true
}
