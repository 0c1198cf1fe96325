package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"distribution-service/internal/distribution"
	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/ingest"
	"distribution-service/internal/repository"
	"distribution-service/internal/service"
	"distribution-service/pkg/logger"
	"distribution-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ListHandler struct {
	Lists    *service.ListService
	MaxBytes int64
	Dev      bool
}

// UploadResponse is returned by POST /api/lists/upload
type UploadResponse struct {
	Message      string                           `json:"message"`
	TotalItems   int                              `json:"totalItems"`
	DroppedRows  int                              `json:"droppedRows"`
	AgentsCount  int                              `json:"agentsCount"`
	Distribution []distribution.AgentDistribution `json:"distribution"`
}

// Upload accepts a multipart "file" field and distributes its rows across all agents
func (h *ListHandler) Upload(c echo.Context) error {
	log := logger.FromEcho(c)

	fh, err := c.FormFile("file")
	if err != nil {
		log.Warn("Upload without file", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please upload a file"})
	}

	format, ok := ingest.FormatFromFilename(fh.Filename)
	if !ok {
		log.Warn("Rejected upload type", zap.String("file", fh.Filename))
		prometheus.RecordUpload("unsupported", "parse_error", time.Now())
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Only CSV, XLSX and XLS files are allowed"})
	}

	prometheus.UploadSize.Observe(float64(fh.Size))
	if h.MaxBytes > 0 && fh.Size > h.MaxBytes {
		log.Warn("Rejected oversized upload", zap.String("file", fh.Filename), zap.Int64("size", fh.Size))
		prometheus.RecordUpload(string(format), "too_large", time.Now())
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "File too large"})
	}

	src, err := fh.Open()
	if err != nil {
		return respondError(c, h.Dev, err, "Error processing file")
	}
	defer src.Close()

	result, err := h.Lists.IngestUpload(c.Request().Context(), src, fh.Filename)
	if err != nil {
		return respondError(c, h.Dev, err, "Error processing file")
	}

	return c.JSON(http.StatusOK, UploadResponse{
		Message:      "File uploaded and distributed successfully",
		TotalItems:   result.TotalItems,
		DroppedRows:  result.DroppedRows,
		AgentsCount:  result.AgentsCount,
		Distribution: result.Distribution,
	})
}

// List returns every item, optionally narrowed by ?agentId= and ?search=
func (h *ListHandler) List(c echo.Context) error {
	filter := repository.ListFilter{Search: c.QueryParam("search")}
	if raw := strings.TrimSpace(c.QueryParam("agentId")); raw != "" {
		id, err := parseID(raw, "agent id")
		if err != nil {
			return respondError(c, h.Dev, err, "")
		}
		filter.AgentID = &id
	}

	items, err := h.Lists.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to retrieve lists")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ListHandler) ListByAgent(c echo.Context) error {
	id, err := parseID(c.Param("agentId"), "agent id")
	if err != nil {
		return respondError(c, h.Dev, err, "")
	}

	items, err := h.Lists.List(c.Request().Context(), repository.ListFilter{AgentID: &id})
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to retrieve lists")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ListHandler) Summary(c echo.Context) error {
	summary, err := h.Lists.Summary(c.Request().Context())
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to build summary")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *ListHandler) Files(c echo.Context) error {
	files, err := h.Lists.Files(c.Request().Context())
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to retrieve files")
	}
	return c.JSON(http.StatusOK, files)
}

func (h *ListHandler) Delete(c echo.Context) error {
	id, err := parseID(c.Param("id"), "list item id")
	if err != nil {
		return respondError(c, h.Dev, err, "")
	}
	if err := h.Lists.DeleteItem(c.Request().Context(), id); err != nil {
		return respondError(c, h.Dev, err, "Failed to delete list item")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "List item removed"})
}

// DeleteFile removes every item uploaded under the given original file name
func (h *ListHandler) DeleteFile(c echo.Context) error {
	log := logger.FromEcho(c)

	name := c.Param("filename")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if strings.TrimSpace(name) == "" {
		return respondError(c, h.Dev, appErrors.NewValidationError("filename is required"), "")
	}

	deleted, err := h.Lists.DeleteFile(c.Request().Context(), name)
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to delete file items")
	}

	log.Info("Deleted file items", zap.String("file", name), zap.Int64("count", deleted))
	return c.JSON(http.StatusOK, echo.Map{
		"message":      fmt.Sprintf("%d items removed successfully", deleted),
		"deletedCount": deleted,
	})
}
