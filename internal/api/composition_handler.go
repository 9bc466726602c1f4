package api

import (
	"net/http"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ordering"
	"alcyxob/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompositionHandler edits the sessions, exercises and sets of a workout.
// Ownership is checked by the service from the authenticated trainer.
type CompositionHandler struct {
	compositionService service.CompositionService
}

func NewCompositionHandler(compositionService service.CompositionService) *CompositionHandler {
	return &CompositionHandler{compositionService: compositionService}
}

type AddSessionRequest struct {
	Name *string `json:"name"`
}

type UpdateSessionRequest struct {
	Name  *string `json:"name"`
	Notes *string `json:"notes"`
}

type ReorderRequest struct {
	Items []ordering.Item `json:"items"`
}

type AddSessionExerciseRequest struct {
	ExerciseID primitive.ObjectID `json:"exerciseId" binding:"required"`
	Notes      *string            `json:"notes"`
}

type UpdateSessionExerciseRequest struct {
	Notes string `json:"notes"`
}

// bind decodes the JSON body into req, aborting with 400 on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}

// --- sessions ---

// @Router /trainer/workouts/{workoutId}/sessions [post]
func (h *CompositionHandler) AddSession(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	var req AddSessionRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	session, err := h.compositionService.AddSession(c.Request.Context(), trainerID, workoutID, req.Name)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// ReorderSessions applies {id, order} pairs to the sessions of a workout.
// @Router /trainer/workouts/{workoutId}/sessions/order [put]
func (h *CompositionHandler) ReorderSessions(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	var req ReorderRequest
	if !bind(c, &req) {
		return
	}
	sessions, err := h.compositionService.ReorderSessions(c.Request.Context(), trainerID, workoutID, req.Items)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// @Router /trainer/sessions/{sessionId} [patch]
func (h *CompositionHandler) UpdateSession(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req UpdateSessionRequest
	if !bind(c, &req) {
		return
	}
	session, err := h.compositionService.UpdateSession(c.Request.Context(), trainerID, sessionID, req.Name, req.Notes)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// DeleteSession answers 409 when the session is the workout's last one.
// @Router /trainer/sessions/{sessionId} [delete]
func (h *CompositionHandler) DeleteSession(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	if err := h.compositionService.DeleteSession(c.Request.Context(), trainerID, sessionID); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- session exercises ---

// @Router /trainer/sessions/{sessionId}/exercises [post]
func (h *CompositionHandler) AddSessionExercise(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req AddSessionExerciseRequest
	if !bind(c, &req) {
		return
	}
	se, err := h.compositionService.AddSessionExercise(c.Request.Context(), trainerID, sessionID, req.ExerciseID, req.Notes)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, se)
}

// @Router /trainer/sessions/{sessionId}/exercises/order [put]
func (h *CompositionHandler) ReorderSessionExercises(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req ReorderRequest
	if !bind(c, &req) {
		return
	}
	ses, err := h.compositionService.ReorderSessionExercises(c.Request.Context(), trainerID, sessionID, req.Items)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ses)
}

// @Router /trainer/session-exercises/{id} [patch]
func (h *CompositionHandler) UpdateSessionExercise(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateSessionExerciseRequest
	if !bind(c, &req) {
		return
	}
	se, err := h.compositionService.UpdateSessionExercise(c.Request.Context(), trainerID, id, req.Notes)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, se)
}

// @Router /trainer/session-exercises/{id} [delete]
func (h *CompositionHandler) DeleteSessionExercise(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.compositionService.DeleteSessionExercise(c.Request.Context(), trainerID, id); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- sets ---

// AddSet appends a set; the body holds the optional targets.
// @Router /trainer/session-exercises/{id}/sets [post]
func (h *CompositionHandler) AddSet(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var targets domain.SetTargets
	if c.Request.ContentLength != 0 && !bind(c, &targets) {
		return
	}
	set, err := h.compositionService.AddSet(c.Request.Context(), trainerID, id, targets)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, set)
}

// @Router /trainer/sets/{setId} [patch]
func (h *CompositionHandler) UpdateSet(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	setID, ok := pathID(c, "setId")
	if !ok {
		return
	}
	var targets domain.SetTargets
	if !bind(c, &targets) {
		return
	}
	set, err := h.compositionService.UpdateSet(c.Request.Context(), trainerID, setID, targets)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// DeleteSet removes the set; later sets move up by one.
// @Router /trainer/sets/{setId} [delete]
func (h *CompositionHandler) DeleteSet(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	setID, ok := pathID(c, "setId")
	if !ok {
		return
	}
	if err := h.compositionService.DeleteSet(c.Request.Context(), trainerID, setID); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
