package api

import (
	"net/http"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerHandler serves the workouts a trainer manages for each client.
type TrainerHandler struct {
	workoutService service.WorkoutService
}

func NewTrainerHandler(workoutService service.WorkoutService) *TrainerHandler {
	return &TrainerHandler{workoutService: workoutService}
}

// --- DTOs for Workout Management ---

type CreateWorkoutRequest struct {
	Name string `json:"name" binding:"required"`
}

type RenameWorkoutRequest struct {
	Name string `json:"name" binding:"required"`
}

type WorkoutResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	TrainerID string               `json:"trainerId"`
	ClientID  string               `json:"clientId"`
	Status    domain.WorkoutStatus `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		ID:        w.ID.Hex(),
		Name:      w.Name,
		TrainerID: w.TrainerID.Hex(),
		ClientID:  w.ClientID.Hex(),
		Status:    w.Status,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func MapWorkoutsToResponse(ws []domain.Workout) []WorkoutResponse {
	out := make([]WorkoutResponse, len(ws))
	for i := range ws {
		out[i] = MapWorkoutToResponse(&ws[i])
	}
	return out
}

// pair resolves the authenticated trainer and the :clientId path parameter.
func pair(c *gin.Context) (trainerID, clientID primitive.ObjectID, ok bool) {
	if trainerID, ok = currentUserID(c); !ok {
		return
	}
	clientID, ok = pathID(c, "clientId")
	return
}

// CreateWorkout godoc
// @Summary Create a draft workout for a client
// @Description The workout is created with one session named "Día 1".
// @Tags Trainer
// @Security BearerAuth
// @Param body body CreateWorkoutRequest true "Workout name"
// @Success 201 {object} domain.WorkoutTree
// @Failure 403 {object} gin.H "No active relationship with the client"
// @Router /trainer/clients/{clientId}/workouts [post]
func (h *TrainerHandler) CreateWorkout(c *gin.Context) {
	trainerID, clientID, ok := pair(c)
	if !ok {
		return
	}
	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	tree, err := h.workoutService.CreateWorkout(c.Request.Context(), trainerID, clientID, req.Name)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tree)
}

// GetWorkouts godoc
// @Summary List a client's workouts, active first then newest
// @Tags Trainer
// @Security BearerAuth
// @Success 200 {array} WorkoutResponse
// @Router /trainer/clients/{clientId}/workouts [get]
func (h *TrainerHandler) GetWorkouts(c *gin.Context) {
	trainerID, clientID, ok := pair(c)
	if !ok {
		return
	}
	ws, err := h.workoutService.ListForClient(c.Request.Context(), trainerID, clientID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(ws))
}

// GetCurrentWorkout godoc
// @Summary Get the client's active workout
// @Tags Trainer
// @Security BearerAuth
// @Success 200 {object} WorkoutResponse
// @Failure 404 {object} gin.H "No active workout"
// @Router /trainer/clients/{clientId}/workouts/current [get]
func (h *TrainerHandler) GetCurrentWorkout(c *gin.Context) {
	trainerID, clientID, ok := pair(c)
	if !ok {
		return
	}
	w, err := h.workoutService.GetCurrentForClient(c.Request.Context(), trainerID, clientID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(w))
}

// GetWorkoutTree godoc
// @Summary Get a workout with its sessions, exercises and sets
// @Tags Trainer
// @Security BearerAuth
// @Success 200 {object} domain.WorkoutTree
// @Router /trainer/clients/{clientId}/workouts/{workoutId} [get]
func (h *TrainerHandler) GetWorkoutTree(c *gin.Context) {
	trainerID, clientID, ok := pair(c)
	if !ok {
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	tree, err := h.workoutService.GetTree(c.Request.Context(), trainerID, clientID, workoutID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// RenameWorkout godoc
// @Summary Rename a workout
// @Tags Trainer
// @Security BearerAuth
// @Param body body RenameWorkoutRequest true "New name"
// @Success 200 {object} WorkoutResponse
// @Router /trainer/clients/{clientId}/workouts/{workoutId} [patch]
func (h *TrainerHandler) RenameWorkout(c *gin.Context) {
	trainerID, clientID, ok := pair(c)
	if !ok {
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	var req RenameWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	w, err := h.workoutService.Rename(c.Request.Context(), trainerID, clientID, workoutID, req.Name)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(w))
}

// DeleteWorkout godoc
// @Summary Delete a workout and everything under it
// @Tags Trainer
// @Security BearerAuth
// @Success 204
// @Router /trainer/clients/{clientId}/workouts/{workoutId} [delete]
func (h *TrainerHandler) DeleteWorkout(c *gin.Context) {
	trainerID, clientID, ok := pair(c)
	if !ok {
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	if err := h.workoutService.DeleteWorkout(c.Request.Context(), trainerID, clientID, workoutID); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type transitionFunc func(c *gin.Context, trainerID, clientID, workoutID primitive.ObjectID) (*domain.Workout, error)

// transition builds the activate/archive/unarchive handlers.
func (h *TrainerHandler) transition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, clientID, ok := pair(c)
		if !ok {
			return
		}
		workoutID, ok := pathID(c, "workoutId")
		if !ok {
			return
		}
		w, err := fn(c, trainerID, clientID, workoutID)
		if err != nil {
			abortWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, MapWorkoutToResponse(w))
	}
}

// ActivateWorkout makes the workout the client's only active one.
// @Router /trainer/clients/{clientId}/workouts/{workoutId}/activate [post]
func (h *TrainerHandler) ActivateWorkout() gin.HandlerFunc {
	return h.transition(func(c *gin.Context, t, cl, w primitive.ObjectID) (*domain.Workout, error) {
		return h.workoutService.Activate(c.Request.Context(), t, cl, w)
	})
}

// @Router /trainer/clients/{clientId}/workouts/{workoutId}/archive [post]
func (h *TrainerHandler) ArchiveWorkout() gin.HandlerFunc {
	return h.transition(func(c *gin.Context, t, cl, w primitive.ObjectID) (*domain.Workout, error) {
		return h.workoutService.Archive(c.Request.Context(), t, cl, w)
	})
}

// @Router /trainer/clients/{clientId}/workouts/{workoutId}/unarchive [post]
func (h *TrainerHandler) UnarchiveWorkout() gin.HandlerFunc {
	return h.transition(func(c *gin.Context, t, cl, w primitive.ObjectID) (*domain.Workout, error) {
		return h.workoutService.Unarchive(c.Request.Context(), t, cl, w)
	})
}
