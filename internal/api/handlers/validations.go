package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/internal/services"
	"go.uber.org/zap"
)

type ValidationHandler struct {
	validation *services.ValidationService
	logger     *zap.Logger
}

func NewValidationHandler(validation *services.ValidationService, logger *zap.Logger) *ValidationHandler {
	return &ValidationHandler{
		validation: validation,
		logger:     logger.With(zap.String("handler", "validation")),
	}
}

type sectionValidationRequest struct {
	ActorKind string                  `json:"actor_kind" binding:"required"`
	ActorID   string                  `json:"actor_id" binding:"required"`
	Section   models.ActorSection     `json:"section" binding:"required"`
	Status    models.ValidationStatus `json:"status" binding:"required"`
	Reason    string                  `json:"reason"`
}

func (h *ValidationHandler) ValidateSection(c *gin.Context) {
	var req sectionValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor, section and status are required"})
		return
	}
	kind, err := services.ParseActorKind(req.ActorKind)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.validation.ValidateSection(c.Request.Context(), kind, req.ActorID, req.Section, req.Status, performer(c), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

type documentValidationRequest struct {
	DocumentID string                  `json:"document_id" binding:"required"`
	Status     models.ValidationStatus `json:"status" binding:"required"`
	Reason     string                  `json:"reason"`
}

func (h *ValidationHandler) ValidateDocument(c *gin.Context) {
	var req documentValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document and status are required"})
		return
	}

	if err := h.validation.ValidateDocument(c.Request.Context(), req.DocumentID, req.Status, performer(c), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}
