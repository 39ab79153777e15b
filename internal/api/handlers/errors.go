package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-photo-gallery/internal/backup"
	"go-photo-gallery/internal/gallery"
	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/store"
	"go-photo-gallery/internal/validation"
)

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var verr *validation.ValidationError
	var ferr *backup.FormatError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, store.ErrDuplicateFolder), errors.Is(err, store.ErrDuplicateImage):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrFolderNotFound),
		errors.Is(err, store.ErrImageNotFound),
		errors.Is(err, store.ErrSurveyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &ferr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "restore aborted, store unchanged", "message": ferr.Error()})
	case errors.Is(err, gallery.ErrSnapshotWrite):
		logging.With("http").Error().Err(err).Msg("snapshot write failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": gallery.ErrSnapshotWrite.Error(), "message": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// respondBindError reports a request body that could not be decoded.
func respondBindError(c *gin.Context, err error) {
	var verr *validation.ValidationError
	if errors.As(validation.Translate(err), &verr) {
		respondError(c, verr)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
}
