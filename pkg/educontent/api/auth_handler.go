package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/edu-content/pkg/educontent/auth"
)

// AuthHandler handles registration, login and the current user.
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Routes returns the routes for authentication
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.With(RequireActor).Get("/me", h.Me)

	return r
}

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries a fresh token and the account it belongs to.
type AuthResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// Register creates an account. The role is assigned by the server.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		renderError(w, r, err)
		return
	}

	user, token, err := h.auth.Register(r.Context(), auth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		slog.Error("Failed to register user", "email", req.Email, "error", err)
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, AuthResponse{Token: token, User: user})
}

// Login exchanges credentials for a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		renderError(w, r, err)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, AuthResponse{Token: token, User: user})
}

// Me returns the account of the caller.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	user, err := h.auth.Me(r.Context(), actor.UserID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}
