package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-photo-gallery/internal/gallery"
	"go-photo-gallery/internal/models"
)

type FolderHandler struct {
	svc *gallery.Service
}

func NewFolderHandler(svc *gallery.Service) *FolderHandler {
	return &FolderHandler{svc: svc}
}

// CreateFolder godoc
// @Summary     Create a folder
// @Tags        folders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Success     201 {object} map[string]interface{}
// @Failure     400 {object} map[string]string
// @Failure     409 {object} map[string]string
// @Router      /folders [post]
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	var input gallery.FolderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	folder, commit, err := h.svc.AddFolder(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"folder": folder, "backup": commit})
}

// ListFolders supports ?search= across name, slug, profession and category.
func (h *FolderHandler) ListFolders(c *gin.Context) {
	folders, err := h.svc.ListFolders(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// ListCategories returns the folders grouped the way the gallery tabs show them.
func (h *FolderHandler) ListCategories(c *gin.Context) {
	groups, err := h.svc.Categories(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	if groups == nil {
		groups = []models.CategoryGroup{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": groups})
}

func (h *FolderHandler) GetFolder(c *gin.Context) {
	folder, err := h.svc.GetFolder(c.Request.Context(), c.Param("folder"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, folder)
}
