package api

import (
	"net/http"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the handlers need.
type Services struct {
	Auth         service.AuthService
	Relationship service.RelationshipService
	Workout      service.WorkoutService
	Composition  service.CompositionService
	Catalog      service.CatalogService
	Profile      service.ProfileService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	clientHandler := NewClientHandler(svc.Relationship)
	trainerHandler := NewTrainerHandler(svc.Workout)
	compositionHandler := NewCompositionHandler(svc.Composition)
	exerciseHandler := NewExerciseHandler(svc.Catalog)
	profileHandler := NewProfileHandler(svc.Profile)

	authMiddleware := AuthMiddleware(jwtSecret)
	trainerOnly := RoleMiddleware(domain.RoleTrainer)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/password/setup", authHandler.SetupPassword)
		}

		// Links from the invitation mail; the token is the credential.
		invitations := apiV1.Group("/invitations/:token")
		{
			invitations.GET("/accept", clientHandler.AcceptInvitation)
			invitations.POST("/accept", clientHandler.AcceptInvitation)
			invitations.GET("/reject", clientHandler.RejectInvitation)
			invitations.POST("/reject", clientHandler.RejectInvitation)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// --- Profiles (own, or a client's for their trainer) ---
		profiles := protected.Group("/profiles/:userId")
		{
			profiles.GET("", profileHandler.GetProfile)
			profiles.PATCH("/name", profileHandler.UpdateName)
			profiles.PATCH("/gender", profileHandler.UpdateGender)
			profiles.PATCH("/birthdate", profileHandler.UpdateBirthdate)
		}

		// --- Exercise catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.GET("", exerciseHandler.GetExercises)
			exerciseGroup.GET("/search", exerciseHandler.SearchExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
			exerciseGroup.GET("/:id/media", exerciseHandler.GetExerciseMedia)

			exerciseGroup.POST("", trainerOnly, exerciseHandler.CreateExercise)
			exerciseGroup.POST("/:id/names", trainerOnly, exerciseHandler.AddName)
			exerciseGroup.POST("/:id/media/upload-url", trainerOnly, exerciseHandler.RequestMediaUpload)
			exerciseGroup.DELETE("/:id", trainerOnly, exerciseHandler.DeleteExercise)
		}

		trainerApiGroup := protected.Group("/trainer")
		trainerApiGroup.Use(trainerOnly)
		{
			// --- Clients ---
			trainerApiGroup.GET("/clients", clientHandler.GetClients)
			trainerApiGroup.POST("/clients", clientHandler.InviteClient)
			trainerApiGroup.DELETE("/clients/:clientId", clientHandler.RemoveClient)

			// --- Workouts ---
			workouts := trainerApiGroup.Group("/clients/:clientId/workouts")
			workouts.POST("", trainerHandler.CreateWorkout)
			workouts.GET("", trainerHandler.GetWorkouts)
			workouts.GET("/current", trainerHandler.GetCurrentWorkout)
			workouts.GET("/:workoutId", trainerHandler.GetWorkoutTree)
			workouts.PATCH("/:workoutId", trainerHandler.RenameWorkout)
			workouts.DELETE("/:workoutId", trainerHandler.DeleteWorkout)
			workouts.POST("/:workoutId/activate", trainerHandler.ActivateWorkout())
			workouts.POST("/:workoutId/archive", trainerHandler.ArchiveWorkout())
			workouts.POST("/:workoutId/unarchive", trainerHandler.UnarchiveWorkout())

			// --- Composition ---
			trainerApiGroup.POST("/workouts/:workoutId/sessions", compositionHandler.AddSession)
			trainerApiGroup.PUT("/workouts/:workoutId/sessions/order", compositionHandler.ReorderSessions)
			trainerApiGroup.PATCH("/sessions/:sessionId", compositionHandler.UpdateSession)
			trainerApiGroup.DELETE("/sessions/:sessionId", compositionHandler.DeleteSession)
			trainerApiGroup.POST("/sessions/:sessionId/exercises", compositionHandler.AddSessionExercise)
			trainerApiGroup.PUT("/sessions/:sessionId/exercises/order", compositionHandler.ReorderSessionExercises)
			trainerApiGroup.PATCH("/session-exercises/:id", compositionHandler.UpdateSessionExercise)
			trainerApiGroup.DELETE("/session-exercises/:id", compositionHandler.DeleteSessionExercise)
			trainerApiGroup.POST("/session-exercises/:id/sets", compositionHandler.AddSet)
			trainerApiGroup.PATCH("/sets/:setId", compositionHandler.UpdateSet)
			trainerApiGroup.DELETE("/sets/:setId", compositionHandler.DeleteSet)
		}
	}
}
