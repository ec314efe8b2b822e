package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/pupilnest/pupilnest-backend/internal/middleware"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/pupilnest/pupilnest-backend/internal/response"
	"github.com/pupilnest/pupilnest-backend/internal/service"
	"github.com/pupilnest/pupilnest-backend/internal/validator"
	"github.com/rs/zerolog"
)

// ProfileReader loads a student by id.
type ProfileReader interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	students    ProfileReader
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, students ProfileReader, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		students:    students,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Login godoc
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().Err(err).Str("user_name", req.UserName).Msg("Login failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Signup godoc
// POST /signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.authService.Signup(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUserNameTaken) {
			response.Fail(c, http.StatusConflict, response.ErrUserNameTaken)
			return
		}
		h.log.Error().Err(err).Msg("Signup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful.",
		"student": student.Profile(),
	})
}

// Logout godoc
// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID); err != nil {
		h.log.Error().Err(err).Int("student_id", claims.UserID).Msg("Logout failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.OK(c, http.StatusOK, "Logged out.")
}

// Me godoc
// GET /api/me
// Returns the profile of the currently authenticated student.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	student, err := h.students.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"success": true, "student": student})
}
