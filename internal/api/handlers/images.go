package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-photo-gallery/internal/gallery"
	"go-photo-gallery/internal/models"
	"go-photo-gallery/internal/utils"
)

type ImageHandler struct {
	svc           *gallery.Service
	maxUploadSize int64
}

func NewImageHandler(svc *gallery.Service, maxUploadSize int64) *ImageHandler {
	return &ImageHandler{svc: svc, maxUploadSize: maxUploadSize}
}

// UploadImages godoc
// @Summary     Upload images into a folder
// @Description Accepts one or more "files" parts. Every image is converted to JPEG and shrunk to fit 800x800. The "download_allowed" field (default true) sets the permission of the new images.
// @Tags        images
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       folder path string true "Folder slug"
// @Success     201 {object} map[string]interface{}
// @Failure     400 {object} map[string]string
// @Failure     404 {object} map[string]string
// @Router      /folders/{folder}/images [post]
func (h *ImageHandler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	headers := form.File["files"]
	uploads := make([]gallery.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := h.readFile(fh)
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		uploads = append(uploads, gallery.Upload{Filename: fh.Filename, Data: data})
	}

	downloadAllowed := true
	if values, ok := form.Value["download_allowed"]; ok && len(values) > 0 {
		downloadAllowed = utils.ParseBoolOption(values[0])
	}

	result, commit, err := h.svc.UploadImages(c.Request.Context(), c.Param("folder"), uploads, downloadAllowed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"images": result.Images, "rejected": result.Rejected, "backup": commit})
}

func (h *ImageHandler) ListImages(c *gin.Context) {
	images, err := h.svc.ListImages(c.Request.Context(), c.Param("folder"))
	if err != nil {
		respondError(c, err)
		return
	}
	if images == nil {
		images = []models.ImageSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

// ServeImage returns the JPEG bytes. With ?download=1 the response is an
// attachment, which is refused when the image does not allow downloads.
func (h *ImageHandler) ServeImage(c *gin.Context) {
	img, err := h.svc.GetImage(c.Request.Context(), c.Param("folder"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	if utils.ParseBoolOption(c.Query("download")) {
		if !img.DownloadAllowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "download is not allowed for this image"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", img.Name))
	}
	c.Data(http.StatusOK, "image/jpeg", img.ImageData)
}

// SwapImage replaces an image's content with the uploaded "file".
func (h *ImageHandler) SwapImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	data, err := h.readFile(fh)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	summary, commit, err := h.svc.SwapImage(c.Request.Context(), c.Param("folder"), c.Param("name"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": summary, "backup": commit})
}

type permissionRequest struct {
	DownloadAllowed *bool `json:"download_allowed" binding:"required"`
}

func (h *ImageHandler) SetPermission(c *gin.Context) {
	var input permissionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	commit, err := h.svc.SetDownloadAllowed(c.Request.Context(), c.Param("folder"), c.Param("name"), *input.DownloadAllowed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_allowed": *input.DownloadAllowed, "backup": commit})
}

func (h *ImageHandler) DeleteImage(c *gin.Context) {
	commit, err := h.svc.DeleteImage(c.Request.Context(), c.Param("folder"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully", "backup": commit})
}

func (h *ImageHandler) readFile(fh *multipart.FileHeader) ([]byte, error) {
	if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
		return nil, fmt.Errorf("file %s is too large (max %d bytes)", fh.Filename, h.maxUploadSize)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
