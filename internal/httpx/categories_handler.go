package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shopadmin/internal/categories"
)

type CategoriesHandler struct {
	Repo *categories.Repo
}

type categoryReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CategoriesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	c := &categories.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if err := h.Repo.Create(r.Context(), c); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CategoriesHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Repo.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CategoriesHandler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Repo.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type categoryUpdateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *CategoriesHandler) update(w http.ResponseWriter, r *http.Request) {
	var req categoryUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	c, err := h.Repo.Update(r.Context(), chi.URLParam(r, "id"), categories.Update{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoriesHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *CategoriesHandler) stats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Repo.Stats(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
