package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dom/task-tracker/internal/api/middleware"
	"github.com/dom/task-tracker/internal/api/response"
	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/metrics"
	"github.com/dom/task-tracker/internal/service"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const maxPasswordBytes = 72

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if len(req.Password) > maxPasswordBytes {
		response.Error(w, http.StatusBadRequest, "password must be at most 72 bytes")
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			metrics.RecordAuth("register", "conflict")
			response.Error(w, http.StatusConflict, "Email already registered")
			return
		}
		writeError(w, r, err, "Not found")
		return
	}

	metrics.RecordAuth("register", "success")
	response.JSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.RecordAuth("login", "failure")
			response.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, r, err, "Not found")
		return
	}

	metrics.RecordAuth("login", "success")
	response.JSON(w, http.StatusOK, LoginResponse{
		Token: result.Token,
		User:  result.User,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}

	response.JSON(w, http.StatusOK, user)
}
