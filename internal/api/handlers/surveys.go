package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-photo-gallery/internal/gallery"
	"go-photo-gallery/internal/models"
)

type SurveyHandler struct {
	svc *gallery.Service
}

func NewSurveyHandler(svc *gallery.Service) *SurveyHandler {
	return &SurveyHandler{svc: svc}
}

// SubmitSurvey godoc
// @Summary     Rate a folder
// @Tags        surveys
// @Accept      json
// @Produce     json
// @Param       folder path string true "Folder slug"
// @Success     201 {object} map[string]interface{}
// @Failure     400 {object} map[string]string
// @Failure     404 {object} map[string]string
// @Router      /folders/{folder}/surveys [post]
func (h *SurveyHandler) SubmitSurvey(c *gin.Context) {
	var input gallery.SurveyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	entry, commit, err := h.svc.SubmitSurvey(c.Request.Context(), c.Param("folder"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"survey": entry, "backup": commit})
}

func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	entries, err := h.svc.ListSurveys(c.Request.Context(), c.Query("folder"))
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []models.SurveyEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"surveys": entries})
}

func (h *SurveyHandler) DeleteSurvey(c *gin.Context) {
	commit, err := h.svc.DeleteSurvey(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Survey entry deleted successfully", "backup": commit})
}

// Ratings returns the average rating per folder.
func (h *SurveyHandler) Ratings(c *gin.Context) {
	summaries, err := h.svc.RatingSummaries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if summaries == nil {
		summaries = []models.RatingSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"ratings": summaries})
}
