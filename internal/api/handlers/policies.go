package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"github.com/netoho/hestia-app-staging-sub000/internal/services"
	"go.uber.org/zap"
)

type PolicyHandler struct {
	policies    *services.PolicyService
	workflow    *services.WorkflowService
	replacement *services.ReplacementService
	pricing     *services.PricingService
	logger      *zap.Logger
}

func NewPolicyHandler(
	policies *services.PolicyService,
	workflow *services.WorkflowService,
	replacement *services.ReplacementService,
	pricing *services.PricingService,
	logger *zap.Logger,
) *PolicyHandler {
	return &PolicyHandler{
		policies:    policies,
		workflow:    workflow,
		replacement: replacement,
		pricing:     pricing,
		logger:      logger.With(zap.String("handler", "policy")),
	}
}

func (h *PolicyHandler) Create(c *gin.Context) {
	var in services.CreatePolicyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid policy payload: " + err.Error()})
		return
	}

	policy, err := h.policies.CreatePolicy(c.Request.Context(), in, performer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, policy)
}

func (h *PolicyHandler) Get(c *gin.Context) {
	policy, err := h.policies.GetPolicy(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (h *PolicyHandler) List(c *gin.Context) {
	status := models.PolicyStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	policies, total, err := h.policies.ListPolicies(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"policies": policies,
		"total":    total,
	})
}

func (h *PolicyHandler) Quote(c *gin.Context) {
	policy, err := h.policies.GetPolicy(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	premium := h.pricing.Quote(policy.RentAmount, policy.ContractLength, policy.GuarantorType)
	c.JSON(http.StatusOK, gin.H{
		"policy_id":       policy.ID,
		"rent_amount":     policy.RentAmount,
		"contract_length": policy.ContractLength,
		"guarantor_type":  policy.GuarantorType,
		"premium":         premium,
	})
}

type transitionRequest struct {
	Status models.PolicyStatus `json:"status" binding:"required"`
	Notes  string              `json:"notes"`
	Reason string              `json:"reason"`
}

func (h *PolicyHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target status is required"})
		return
	}

	policy, err := h.workflow.TransitionPolicyStatus(c.Request.Context(), c.Param("id"), req.Status, performer(c), req.Notes, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

type cancelRequest struct {
	Reason  string `json:"reason" binding:"required"`
	Comment string `json:"comment"`
}

func (h *PolicyHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cancellation reason is required"})
		return
	}

	policy, err := h.workflow.CancelPolicy(c.Request.Context(), c.Param("id"), req.Reason, req.Comment, performer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

type replaceTenantRequest struct {
	Reason            string             `json:"reason" binding:"required"`
	NewTenant         services.ActorStub `json:"new_tenant" binding:"required"`
	ReplaceGuarantors bool               `json:"replace_guarantors"`
}

func (h *PolicyHandler) ReplaceTenant(c *gin.Context) {
	var req replaceTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason and new tenant stub are required"})
		return
	}

	if err := h.replacement.ReplaceTenant(c.Request.Context(), c.Param("id"), req.Reason, req.NewTenant, req.ReplaceGuarantors, performer(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "tenant replaced"})
}

type guarantorTypeRequest struct {
	Reason           string               `json:"reason" binding:"required"`
	GuarantorType    models.GuarantorType `json:"guarantor_type" binding:"required"`
	NewJointObligors []services.ActorStub `json:"new_joint_obligors"`
	NewAvals         []services.ActorStub `json:"new_avals"`
}

func (h *PolicyHandler) ChangeGuarantorType(c *gin.Context) {
	var req guarantorTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason and guarantor type are required"})
		return
	}

	if err := h.replacement.ChangeGuarantorType(c.Request.Context(), c.Param("id"), req.Reason, req.GuarantorType, req.NewJointObligors, req.NewAvals, performer(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "guarantor type changed"})
}
