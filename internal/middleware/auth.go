package middleware

import (
	"net/http"
	"strings"

	"distribution-service/pkg/jwtutil"
	"distribution-service/pkg/logger"
	"distribution-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	ClaimsKey  = "admin"
	AdminIDKey = "admin_id"
	EmailKey   = "email"
)

// AuthMiddleware creates a middleware that validates bearer JWT tokens
func AuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "No token, authorization denied"})
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("Invalid authorization header format")
				prometheus.RecordAuthError("invalid_header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token is not valid"})
			}

			c.Set(ClaimsKey, claims)
			c.Set(AdminIDKey, claims.AdminID)
			c.Set(EmailKey, claims.Email)
			log.Debug("JWT token validated successfully",
				zap.Uint("admin_id", claims.AdminID),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// AdminID returns the authenticated admin id set by AuthMiddleware
func AdminID(c echo.Context) (uint, bool) {
	id, ok := c.Get(AdminIDKey).(uint)
	return id, ok
}
