package handler

import (
	"errors"
	"net/http"
	"strconv"

	appErrors "distribution-service/internal/errors"
	"distribution-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError maps domain errors to status codes. Unknown errors become a
// 500 carrying fallback as message; the cause is exposed only in development.
func respondError(c echo.Context, dev bool, err error, fallback string) error {
	var (
		parseErr       *appErrors.ParseError
		validationErr  *appErrors.ValidationError
		noAgentsErr    *appErrors.NoAgentsError
		conflictErr    *appErrors.ConflictError
		notFoundErr    *appErrors.NotFoundError
		persistenceErr *appErrors.PersistenceError
	)

	switch {
	case errors.As(err, &parseErr),
		errors.As(err, &validationErr),
		errors.As(err, &noAgentsErr),
		errors.As(err, &conflictErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, echo.Map{"message": notFoundMessage(notFoundErr)})
	}

	log := logger.FromEcho(c)
	if errors.As(err, &persistenceErr) {
		log.Error(fallback, zap.String("op", persistenceErr.Op), zap.Error(err))
	} else {
		log.Error(fallback, zap.Error(err))
	}

	body := echo.Map{"message": fallback}
	if dev {
		body["error"] = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, body)
}

func notFoundMessage(err *appErrors.NotFoundError) string {
	switch err.Resource {
	case "agent":
		return "Agent not found"
	case "list item":
		return "List item not found"
	case "admin":
		return "Admin not found"
	}
	return err.Error()
}

func parseID(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, appErrors.NewValidationError("invalid " + name)
	}
	return uint(id), nil
}
