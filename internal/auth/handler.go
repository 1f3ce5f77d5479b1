package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/furever-community/backend/internal/models"
	"github.com/furever-community/backend/internal/store"
	"github.com/furever-community/backend/internal/web"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, firstName, lastName, username, email, hashedPassword string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id, email, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
	DeleteUser(ctx context.Context, id string) error
}

// Handler holds the account HTTP handlers.
type Handler struct {
	users  UserStore
	tokens *TokenService
}

func NewHandler(users UserStore, tokens *TokenService) *Handler {
	return &Handler{users: users, tokens: tokens}
}

// Register creates a new user and returns a fresh token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		web.Error(w, r, http.StatusBadRequest, "All fields are required", nil)
		return
	}
	if _, err := h.users.GetUserByEmail(r.Context(), req.Email); err == nil {
		web.Error(w, r, http.StatusBadRequest, "User already exists", nil)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	if err := ValidatePassword(req.Password); err != nil {
		web.Error(w, r, http.StatusBadRequest, "Password does not meet requirements", nil)
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.FirstName, req.LastName, req.Username, req.Email, hashed)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			web.Error(w, r, http.StatusBadRequest, "User already exists", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	web.JSON(w, http.StatusCreated, map[string]string{"token": token})
}

// Login authenticates by email and password. The error message is
// identical for an unknown email and a wrong password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusBadRequest, "Invalid credentials", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	if !CheckPassword(req.Password, user.Password) {
		web.Error(w, r, http.StatusBadRequest, "Invalid credentials", nil)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Profile returns the authenticated user's public fields.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusNotFound, "User not found", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	web.JSON(w, http.StatusOK, user)
}

// UpdateProfile changes email and/or username; omitted fields keep
// their value. Uniqueness is not pre-checked here, a clash surfaces as
// a duplicate from the store.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), UserIDFromContext(r.Context()), req.Email, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			web.Error(w, r, http.StatusNotFound, "User not found", nil)
		case errors.Is(err, store.ErrDuplicate):
			web.Error(w, r, http.StatusBadRequest, "Email or username already in use", nil)
		default:
			web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		}
		return
	}
	web.JSON(w, http.StatusOK, user)
}

// ChangePassword verifies the current password and stores a new hash.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusNotFound, "User not found", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	if !CheckPassword(req.CurrentPassword, user.Password) {
		web.Error(w, r, http.StatusBadRequest, "Current password is incorrect", nil)
		return
	}
	if err := ValidatePassword(req.NewPassword); err != nil {
		web.Error(w, r, http.StatusBadRequest, "New password does not meet requirements", nil)
		return
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, hashed); err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	web.Message(w, http.StatusOK, "Password updated successfully")
}

// DeleteAccount permanently removes the user. Events they created are
// left in place with a dangling creator reference.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.users.DeleteUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusNotFound, "User not found", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Something went wrong", err)
		return
	}
	web.Message(w, http.StatusOK, "Account deleted successfully")
}
