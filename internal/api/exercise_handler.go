package api

import (
	"net/http"
	"strconv"
	"time"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler serves the shared exercise catalog.
type ExerciseHandler struct {
	catalogService service.CatalogService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(catalogService service.CatalogService) *ExerciseHandler {
	return &ExerciseHandler{catalogService: catalogService}
}

// --- DTOs for API (Data Transfer Objects) ---

type CreateExerciseRequest struct {
	Name         string                       `json:"name" binding:"required"`
	Slug         string                       `json:"slug"`
	Description  string                       `json:"description"`
	Names        []domain.ExerciseName        `json:"names"`
	Categories   []domain.ExerciseCategory    `json:"categories"`
	Muscles      []domain.ExerciseMuscle      `json:"muscles"`
	Equipment    []string                     `json:"equipment"`
	Tags         []string                     `json:"tags"`
	Media        []domain.ExerciseMedia       `json:"media"`
	Instructions []domain.ExerciseInstruction `json:"instructions"`
}

type AddNameRequest struct {
	Name      string `json:"name" binding:"required"`
	Locale    string `json:"locale" binding:"required"`
	IsPrimary bool   `json:"isPrimary"`
}

type MediaUploadRequest struct {
	Type        string `json:"type" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type MediaUploadResponse struct {
	Media     domain.ExerciseMedia `json:"media"`
	UploadURL string               `json:"uploadUrl"`
	ExpiresAt time.Time            `json:"expiresAt"`
}

// ExerciseResponse flattens the localized fields for one locale.
type ExerciseResponse struct {
	ID                string                 `json:"id"`
	Slug              string                 `json:"slug"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description,omitempty"`
	Names             []string               `json:"names,omitempty"`
	PrimaryCategories []string               `json:"primaryCategories,omitempty"`
	Equipment         []string               `json:"equipment,omitempty"`
	Tags              []string               `json:"tags,omitempty"`
	Media             []domain.ExerciseMedia `json:"media,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// MapExerciseToResponse renders ex for locale, falling back to the
// canonical name when the locale has no primary name.
func MapExerciseToResponse(ex *domain.Exercise, locale string) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	name := ex.Name
	if n, ok := ex.PrimaryName(locale); ok {
		name = n.Name
	}
	return ExerciseResponse{
		ID:                ex.ID.Hex(),
		Slug:              ex.Slug,
		Name:              name,
		Description:       ex.Description,
		Names:             ex.NamesFor(locale),
		PrimaryCategories: ex.PrimaryCategories(locale),
		Equipment:         ex.Equipment,
		Tags:              ex.Tags,
		Media:             ex.Media,
		CreatedAt:         ex.CreatedAt,
		UpdatedAt:         ex.UpdatedAt,
	}
}

func MapExercisesToResponse(exs []domain.Exercise, locale string) []ExerciseResponse {
	out := make([]ExerciseResponse, len(exs))
	for i := range exs {
		out[i] = MapExerciseToResponse(&exs[i], locale)
	}
	return out
}

func localeParam(c *gin.Context) string {
	if l := c.Query("locale"); l != "" {
		return l
	}
	return domain.DefaultLocale
}

func int64Query(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return v, true
}

// CreateExercise godoc
// @Summary Add an exercise to the catalog
// @Tags Exercises
// @Security BearerAuth
// @Param exercise body CreateExerciseRequest true "Exercise"
// @Success 201 {object} ExerciseResponse
// @Failure 409 {object} gin.H "Slug already used"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req CreateExerciseRequest
	if !bind(c, &req) {
		return
	}
	ex, err := h.catalogService.CreateExercise(c.Request.Context(), service.CreateExerciseInput{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		Names:        req.Names,
		Categories:   req.Categories,
		Muscles:      req.Muscles,
		Equipment:    req.Equipment,
		Tags:         req.Tags,
		Media:        req.Media,
		Instructions: req.Instructions,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(ex, domain.DefaultLocale))
}

// GetExercises godoc
// @Summary List the catalog ordered by name
// @Tags Exercises
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Offset"
// @Param locale query string false "Locale (default es)"
// @Success 200 {array} ExerciseResponse
// @Router /exercises [get]
func (h *ExerciseHandler) GetExercises(c *gin.Context) {
	limit, ok := int64Query(c, "limit")
	if !ok {
		return
	}
	offset, ok := int64Query(c, "offset")
	if !ok {
		return
	}
	exs, err := h.catalogService.ListExercises(c.Request.Context(), limit, offset)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exs, localeParam(c)))
}

// SearchExercises godoc
// @Summary Search exercise names, accent and case insensitive
// @Tags Exercises
// @Security BearerAuth
// @Param q query string true "Query"
// @Success 200 {array} ExerciseResponse
// @Router /exercises/search [get]
func (h *ExerciseHandler) SearchExercises(c *gin.Context) {
	limit, ok := int64Query(c, "limit")
	if !ok {
		return
	}
	locale := localeParam(c)
	exs, err := h.catalogService.SearchExercises(c.Request.Context(), c.Query("q"), locale, limit)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exs, locale))
}

// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ex, err := h.catalogService.GetExercise(c.Request.Context(), id)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(ex, localeParam(c)))
}

// GetExerciseMedia returns the media of an exercise with browsable URLs.
// @Router /exercises/{id}/media [get]
func (h *ExerciseHandler) GetExerciseMedia(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	media, err := h.catalogService.MediaURLs(c.Request.Context(), id)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

// @Router /exercises/{id}/names [post]
func (h *ExerciseHandler) AddName(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AddNameRequest
	if !bind(c, &req) {
		return
	}
	ex, err := h.catalogService.AddName(c.Request.Context(), id, req.Name, req.Locale, req.IsPrimary)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(ex, req.Locale))
}

// RequestMediaUpload registers a media entry and returns a presigned PUT URL.
// @Router /exercises/{id}/media/upload-url [post]
func (h *ExerciseHandler) RequestMediaUpload(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MediaUploadRequest
	if !bind(c, &req) {
		return
	}
	upload, err := h.catalogService.MediaUploadURL(c.Request.Context(), id, req.Type, req.FileName, req.ContentType)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MediaUploadResponse{
		Media:     upload.Media,
		UploadURL: upload.UploadURL,
		ExpiresAt: upload.ExpiresAt,
	})
}

// DeleteExercise answers 409 while any workout references the exercise.
// @Router /exercises/{id} [delete]
func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteExercise(c.Request.Context(), id); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
