package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/auth"
	"github.com/vasiliy-maslov/campus-eats/internal/user"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *user.User `json:"user"`
}

type TokenIssuer interface {
	Issue(a auth.Actor) (string, time.Time, error)
}

type UserHandler struct {
	service  user.Service
	tokens   TokenIssuer
	validate *validator.Validate
}

func NewUserHandler(service user.Service, tokens TokenIssuer) *UserHandler {
	return &UserHandler{
		service:  service,
		tokens:   tokens,
		validate: newValidator(),
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/login", h.handleLogin)
	router.With(auth.RequireAuth).Get("/users/me", h.handleGetMe)
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload LoginRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	u, err := h.service.Authenticate(r.Context(), requestPayload.Email, requestPayload.Password)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to log in")
		return
	}

	token, expiresAt, err := h.tokens.Issue(u.Actor())
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("http: failed to issue token")
		respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: u})
}

func (h *UserHandler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	u, err := h.service.GetUserByID(r.Context(), actor.UserID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get user")
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}
