package handler

import (
	"net/http"
	"strings"

	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/model"
	"distribution-service/internal/repository"
	"distribution-service/pkg/logger"
	"distribution-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const duplicateAgentEmail = "Agent with this email already exists"

type AgentHandler struct {
	Agents repository.AgentRepositoryInterface
	Dev    bool
}

// CreateAgentRequest defines the body of POST /api/agents
type CreateAgentRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=100"`
	MobileNumber string `json:"mobileNumber" validate:"required,max=30"`
	Password     string `json:"password" validate:"required,min=6"`
}

// UpdateAgentRequest defines the body of PUT /api/agents/:id. The password is not changed.
type UpdateAgentRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=100"`
	MobileNumber string `json:"mobileNumber" validate:"required,max=30"`
}

func (h *AgentHandler) List(c echo.Context) error {
	prometheus.RecordAgentOperation("list")

	agents, err := h.Agents.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to retrieve agents")
	}
	return c.JSON(http.StatusOK, agents)
}

func (h *AgentHandler) Get(c echo.Context) error {
	prometheus.RecordAgentOperation("get")

	id, err := parseID(c.Param("id"), "agent id")
	if err != nil {
		return respondError(c, h.Dev, err, "")
	}
	agent, err := h.Agents.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to retrieve agent")
	}
	return c.JSON(http.StatusOK, agent)
}

func (h *AgentHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()
	prometheus.RecordAgentOperation("create")

	var req CreateAgentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request data"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.MobileNumber = strings.TrimSpace(req.MobileNumber)
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Dev, err, "")
	}

	taken, err := h.Agents.EmailTaken(ctx, req.Email, 0)
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to create agent")
	}
	if taken {
		log.Warn("Agent with this email already exists", zap.String("email", req.Email))
		return respondError(c, h.Dev, appErrors.NewConflict(duplicateAgentEmail), "")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to create agent")
	}

	agent := model.Agent{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     string(hashed),
	}
	if err := h.Agents.Create(ctx, &agent); err != nil {
		return respondError(c, h.Dev, err, "Failed to create agent")
	}

	log.Info("Agent created", zap.Uint("agent_id", agent.ID), zap.String("email", agent.Email))
	return c.JSON(http.StatusCreated, agent)
}

func (h *AgentHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx := c.Request().Context()
	prometheus.RecordAgentOperation("update")

	id, err := parseID(c.Param("id"), "agent id")
	if err != nil {
		return respondError(c, h.Dev, err, "")
	}

	var req UpdateAgentRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request data"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.MobileNumber = strings.TrimSpace(req.MobileNumber)
	if err := c.Validate(&req); err != nil {
		return respondError(c, h.Dev, err, "")
	}

	taken, err := h.Agents.EmailTaken(ctx, req.Email, id)
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to update agent")
	}
	if taken {
		return respondError(c, h.Dev, appErrors.NewConflict(duplicateAgentEmail), "")
	}

	agent := model.Agent{ID: id, Name: req.Name, Email: req.Email, MobileNumber: req.MobileNumber}
	if err := h.Agents.Update(ctx, &agent); err != nil {
		return respondError(c, h.Dev, err, "Failed to update agent")
	}

	updated, err := h.Agents.GetByID(ctx, id)
	if err != nil {
		return respondError(c, h.Dev, err, "Failed to update agent")
	}

	log.Info("Agent updated", zap.Uint("agent_id", id))
	return c.JSON(http.StatusOK, updated)
}

// Delete removes an agent. Items already distributed to it are kept.
func (h *AgentHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordAgentOperation("delete")

	id, err := parseID(c.Param("id"), "agent id")
	if err != nil {
		return respondError(c, h.Dev, err, "")
	}
	if err := h.Agents.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Dev, err, "Failed to delete agent")
	}

	log.Info("Agent deleted", zap.Uint("agent_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Agent removed"})
}
