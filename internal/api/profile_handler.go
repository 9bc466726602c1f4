package api

import (
	"net/http"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileHandler serves the personal details of users.
type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type UpdateNameRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type UpdateGenderRequest struct {
	Gender domain.Gender `json:"gender" binding:"required,oneof=male female other"`
}

// UpdateBirthdateRequest carries a calendar date, e.g. "1990-05-17".
type UpdateBirthdateRequest struct {
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
}

type ProfileResponse struct {
	UserID      string        `json:"userId"`
	Email       string        `json:"email"`
	FirstName   string        `json:"firstName,omitempty"`
	LastName    string        `json:"lastName,omitempty"`
	Gender      domain.Gender `json:"gender,omitempty"`
	DateOfBirth string        `json:"dateOfBirth,omitempty"`
}

const dateLayout = "2006-01-02"

func MapProfileToResponse(u *domain.User) ProfileResponse {
	resp := ProfileResponse{
		UserID:    u.ID.Hex(),
		Email:     u.Email,
		FirstName: u.Profile.FirstName,
		LastName:  u.Profile.LastName,
		Gender:    u.Profile.Gender,
	}
	if u.Profile.DateOfBirth != nil {
		resp.DateOfBirth = u.Profile.DateOfBirth.Format(dateLayout)
	}
	return resp
}

// actorAndUser resolves the caller and the :userId path parameter.
func actorAndUser(c *gin.Context) (actorID, userID primitive.ObjectID, ok bool) {
	if actorID, ok = currentUserID(c); !ok {
		return
	}
	userID, ok = pathID(c, "userId")
	return
}

func (h *ProfileHandler) respond(c *gin.Context, u *domain.User, err error) {
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(u))
}

// @Router /profiles/{userId} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	actorID, userID, ok := actorAndUser(c)
	if !ok {
		return
	}
	u, err := h.profileService.GetProfile(c.Request.Context(), actorID, userID)
	h.respond(c, u, err)
}

// @Router /profiles/{userId}/name [patch]
func (h *ProfileHandler) UpdateName(c *gin.Context) {
	actorID, userID, ok := actorAndUser(c)
	if !ok {
		return
	}
	var req UpdateNameRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.profileService.UpdateName(c.Request.Context(), actorID, userID, req.FirstName, req.LastName)
	h.respond(c, u, err)
}

// @Router /profiles/{userId}/gender [patch]
func (h *ProfileHandler) UpdateGender(c *gin.Context) {
	actorID, userID, ok := actorAndUser(c)
	if !ok {
		return
	}
	var req UpdateGenderRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.profileService.UpdateGender(c.Request.Context(), actorID, userID, req.Gender)
	h.respond(c, u, err)
}

// @Router /profiles/{userId}/birthdate [patch]
func (h *ProfileHandler) UpdateBirthdate(c *gin.Context) {
	actorID, userID, ok := actorAndUser(c)
	if !ok {
		return
	}
	var req UpdateBirthdateRequest
	if !bind(c, &req) {
		return
	}
	date, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "dateOfBirth must be YYYY-MM-DD", "field": "dateOfBirth"})
		return
	}
	u, err := h.profileService.UpdateBirthdate(c.Request.Context(), actorID, userID, date)
	h.respond(c, u, err)
}
