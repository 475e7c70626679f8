package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/internal/services"
	"go.uber.org/zap"
)

type ActorHandler struct {
	policies   *services.PolicyService
	validation *services.ValidationService
	tokens     *services.TokenService
	store      *services.ObjectStore
	logger     *zap.Logger
}

func NewActorHandler(
	policies *services.PolicyService,
	validation *services.ValidationService,
	tokens *services.TokenService,
	store *services.ObjectStore,
	logger *zap.Logger,
) *ActorHandler {
	return &ActorHandler{
		policies:   policies,
		validation: validation,
		tokens:     tokens,
		store:      store,
		logger:     logger.With(zap.String("handler", "actor")),
	}
}

// Get returns the actor's own record plus what is still missing, for the
// self-service form.
func (h *ActorHandler) Get(c *gin.Context) {
	actor, err := h.tokens.Resolve(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	completeness := services.CheckCompleteness(actor)
	c.JSON(http.StatusOK, gin.H{
		"kind":              actor.Kind,
		"actor":             actor,
		"completeness":      completeness,
		"missing_documents": services.MissingDocuments(actor),
	})
}

// Save applies a partial update from the self-service form.
func (h *ActorHandler) Save(c *gin.Context) {
	actor, err := h.tokens.ResolveForEditing(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	var in services.SaveActorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}

	if err := h.policies.SaveActor(c.Request.Context(), actor, in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// UploadDocument stores the file and records it against the actor.
func (h *ActorHandler) UploadDocument(c *gin.Context) {
	actor, err := h.tokens.ResolveForEditing(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	category := models.DocumentCategory(c.PostForm("category"))
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%s/%s/%s", actor.PolicyID, actor.ID, uuid.New().String(), header.Filename)
	if err := h.store.Upload(c.Request.Context(), key, file, header.Size, contentType); err != nil {
		h.logger.Error("document upload failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store document"})
		return
	}

	doc, err := h.policies.AttachDocument(c.Request.Context(), actor, category, header.Filename, key, contentType, header.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Submit finalizes the actor's data entry via their token.
func (h *ActorHandler) Submit(c *gin.Context) {
	actor, err := h.tokens.ResolveForEditing(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.validation.SubmitActor(c.Request.Context(), actor.Kind, actor.ID, actor.DisplayName(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "submitted",
		"completeness": result,
	})
}

// AdminSubmit lets a reviewer finalize an actor, optionally bypassing
// the completeness gate for data entered on the actor's behalf.
func (h *ActorHandler) AdminSubmit(c *gin.Context) {
	kind, err := services.ParseActorKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		SkipValidation bool `json:"skip_validation"`
	}
	_ = c.ShouldBindJSON(&req)

	result, err := h.validation.SubmitActor(c.Request.Context(), kind, c.Param("id"), performer(c), req.SkipValidation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "submitted",
		"completeness": result,
	})
}

// RegenerateToken lets a reviewer reissue an actor's self-service link.
func (h *ActorHandler) RegenerateToken(c *gin.Context) {
	kind, err := services.ParseActorKind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.policies.RegenerateActorToken(c.Request.Context(), kind, c.Param("id"), performer(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "token regenerated"})
}

// DownloadDocument hands out a presigned link for a stored document.
func (h *ActorHandler) DownloadDocument(c *gin.Context) {
	actor, err := h.tokens.Resolve(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	docID := c.Param("docId")
	var target *models.Document
	for i := range actor.Documents {
		if actor.Documents[i].ID == docID {
			target = &actor.Documents[i]
			break
		}
	}
	if target == nil {
		respondError(c, services.NotFoundError("document", docID))
		return
	}

	url, err := h.store.PresignedURL(c.Request.Context(), target.FileKey)
	if err != nil {
		h.logger.Error("presign failed", zap.String("key", target.FileKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate download link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
