package api

import (
	"net/http"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ClientHandler serves the trainer's client roster and the public
// invitation links.
type ClientHandler struct {
	relationshipService service.RelationshipService
}

func NewClientHandler(relationshipService service.RelationshipService) *ClientHandler {
	return &ClientHandler{relationshipService: relationshipService}
}

// --- DTOs ---

type InviteClientRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	ConfirmExisting bool   `json:"confirmExisting"`
}

type RelationshipResponse struct {
	ID         string                    `json:"id"`
	TrainerID  string                    `json:"trainerId"`
	ClientID   string                    `json:"clientId"`
	Status     domain.RelationshipStatus `json:"status"`
	InvitedAt  time.Time                 `json:"invitedAt"`
	AcceptedAt *time.Time                `json:"acceptedAt,omitempty"`
}

type InviteClientResponse struct {
	Status       service.InviteStatus  `json:"status"`
	User         domain.UserSummary    `json:"user"`
	Existing     bool                  `json:"existing"`
	Relationship *RelationshipResponse `json:"relationship,omitempty"`
}

type ClientListingResponse struct {
	Client       UserResponse         `json:"client"`
	Relationship RelationshipResponse `json:"relationship"`
}

func MapRelationshipToResponse(r *domain.TrainerClientRelationship) RelationshipResponse {
	return RelationshipResponse{
		ID:         r.ID.Hex(),
		TrainerID:  r.TrainerID.Hex(),
		ClientID:   r.ClientID.Hex(),
		Status:     r.Status,
		InvitedAt:  r.InvitedAt,
		AcceptedAt: r.AcceptedAt,
	}
}

// --- Trainer roster ---

// InviteClient godoc
// @Summary Invite a client by email
// @Description Returns status "needs_confirmation" when the email already has an account
// @Description and confirmExisting was not set; nothing is written in that case.
// @Tags Trainer
// @Security BearerAuth
// @Param body body InviteClientRequest true "Invitee"
// @Success 201 {object} InviteClientResponse
// @Success 200 {object} InviteClientResponse "needs_confirmation"
// @Failure 409 {object} gin.H "Already a client"
// @Router /trainer/clients [post]
func (h *ClientHandler) InviteClient(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req InviteClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	res, err := h.relationshipService.InviteClient(c.Request.Context(), trainerID, service.InviteRequest{
		Email:           req.Email,
		FirstName:       req.FirstName,
		ConfirmExisting: req.ConfirmExisting,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	resp := InviteClientResponse{Status: res.Status, User: res.User, Existing: res.Existing}
	code := http.StatusOK
	if res.Relationship != nil {
		rel := MapRelationshipToResponse(res.Relationship)
		resp.Relationship = &rel
		code = http.StatusCreated
	}
	c.JSON(code, resp)
}

// GetClients godoc
// @Summary List the trainer's clients, pending invitations included
// @Tags Trainer
// @Security BearerAuth
// @Success 200 {array} ClientListingResponse
// @Router /trainer/clients [get]
func (h *ClientHandler) GetClients(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	listing, err := h.relationshipService.ListClients(c.Request.Context(), trainerID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	out := make([]ClientListingResponse, len(listing))
	for i := range listing {
		out[i] = ClientListingResponse{
			Client:       MapUserToResponse(&listing[i].Client),
			Relationship: MapRelationshipToResponse(&listing[i].Relationship),
		}
	}
	c.JSON(http.StatusOK, out)
}

// RemoveClient godoc
// @Summary Remove a client (or cancel a pending invitation)
// @Tags Trainer
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} gin.H
// @Router /trainer/clients/{clientId} [delete]
func (h *ClientHandler) RemoveClient(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return
	}
	if err := h.relationshipService.RemoveClient(c.Request.Context(), trainerID, clientID); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Public invitation links ---

// AcceptInvitation godoc
// @Summary Accept an invitation using the token from the invitation mail
// @Tags Invitations
// @Success 200 {object} RelationshipResponse
// @Failure 404 {object} gin.H "Invalid or consumed token"
// @Router /invitations/{token}/accept [get]
func (h *ClientHandler) AcceptInvitation(c *gin.Context) {
	rel, err := h.relationshipService.AcceptInvitation(c.Request.Context(), c.Param("token"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRelationshipToResponse(rel))
}

// RejectInvitation godoc
// @Summary Reject an invitation using the token from the invitation mail
// @Tags Invitations
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H "Invalid or consumed token"
// @Router /invitations/{token}/reject [get]
func (h *ClientHandler) RejectInvitation(c *gin.Context) {
	if err := h.relationshipService.RejectInvitation(c.Request.Context(), c.Param("token")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}
