package handler

import (
	"net/http"

	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/middleware"
	"distribution-service/internal/model"
	"distribution-service/internal/repository"
	"distribution-service/pkg/jwtutil"
	"distribution-service/pkg/logger"
	"distribution-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	Admins repository.AdminRepositoryInterface
	JWT    *jwtutil.JWTUtil
	Dev    bool
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()
	prometheus.RegisterCounter.Inc()

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		prometheus.RecordAuthError("incomplete_registration")
		return respondError(c, h.Dev, err, "Registration failed")
	}

	existing, err := h.Admins.GetByEmail(ctx, req.Email)
	if err != nil {
		return respondError(c, h.Dev, err, "Registration failed")
	}
	if existing != nil {
		log.Warn("Admin already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return respondError(c, h.Dev, appErrors.NewConflict("Admin already exists"), "Registration failed")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		prometheus.RecordAuthError("password_hash_failed")
		return respondError(c, h.Dev, err, "Registration failed")
	}

	admin := model.Admin{Email: req.Email, Password: string(hashed)}
	if err := h.Admins.Create(ctx, &admin); err != nil {
		prometheus.RecordAuthError("admin_creation_failed")
		return respondError(c, h.Dev, err, "Registration failed")
	}

	token, err := h.JWT.GenerateToken(admin.Email, admin.ID)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return respondError(c, h.Dev, err, "Registration failed")
	}

	log.Info("Admin registered", zap.String("email", admin.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"token": token,
		"admin": admin,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return respondError(c, h.Dev, err, "Login failed")
	}

	admin, err := h.Admins.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return respondError(c, h.Dev, err, "Login failed")
	}
	if admin == nil {
		log.Warn("Admin not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("admin_not_found")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid credentials"})
	}

	token, err := h.JWT.GenerateToken(admin.Email, admin.ID)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return respondError(c, h.Dev, err, "Login failed")
	}

	log.Info("Admin logged in", zap.String("email", admin.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"admin": admin,
	})
}

// CurrentAdmin returns the admin behind the bearer token
func (h *AuthHandler) CurrentAdmin(c echo.Context) error {
	id, ok := middleware.AdminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token is not valid"})
	}

	admin, err := h.Admins.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to load admin")
	}
	return c.JSON(http.StatusOK, admin)
}
