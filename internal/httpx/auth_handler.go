package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"shopadmin/internal/apperr"
	"shopadmin/internal/auth"
	"shopadmin/internal/users"
)

type AuthHandler struct {
	Users      *users.Repo
	Tokens     *auth.Tokens
	BcryptCost int
}

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	User  *users.User `json:"user"`
	Token string      `json:"token"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Name == "" || len(req.Password) < 6 {
		badRequest(w, "email, name and a password of at least 6 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		writeErr(w, err)
		return
	}
	u := &users.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         auth.RoleUser,
		Active:       true,
	}
	if err := h.Users.Create(r.Context(), u); err != nil {
		writeErr(w, err)
		return
	}
	token, err := h.Tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResp{User: u, Token: token})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	u, err := h.Users.ByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		writeErr(w, err)
		return
	}
	// same response for unknown email and wrong password
	if u == nil || !u.Active || !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeErr(w, apperr.New(apperr.Unauthorized, "invalid credentials"))
		return
	}
	token, err := h.Tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResp{User: u, Token: token})
}

func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	u, err := h.Users.ByID(r.Context(), claims.UserID())
	if err != nil {
		writeErr(w, err)
		return
	}
	if u == nil {
		writeErr(w, apperr.New(apperr.NotFound, "user not found"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateProfileReq struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	var req updateProfileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	upd := users.ProfileUpdate{Name: req.Name}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			badRequest(w, "password must be at least 6 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password, h.BcryptCost)
		if err != nil {
			writeErr(w, err)
			return
		}
		upd.PasswordHash = &hash
	}
	u, err := h.Users.UpdateProfile(r.Context(), claims.UserID(), upd)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
