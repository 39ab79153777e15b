package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"go-photo-gallery/internal/gallery"
)

const maxRestoreSize = 512 << 20

type BackupHandler struct {
	svc *gallery.Service
}

func NewBackupHandler(svc *gallery.Service) *BackupHandler {
	return &BackupHandler{svc: svc}
}

// Export downloads the current snapshot as a JSON attachment.
func (h *BackupHandler) Export(c *gin.Context) {
	snap, err := h.svc.Export(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		respondError(c, fmt.Errorf("failed to marshal snapshot: %w", err))
		return
	}

	filename := fmt.Sprintf("db_backup_%s.json", time.Now().UTC().Format("20060102T150405Z"))
	c.Header("Content-Disposition", "attachment;filename="+filename)
	c.Data(http.StatusOK, "application/json", data)
}

// Sync writes the snapshot and pushes it to the remote now.
func (h *BackupHandler) Sync(c *gin.Context) {
	commit, err := h.svc.Backup(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if commit.SyncError != "" {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"backup": commit})
}

// Restore godoc
// @Summary     Restore from a snapshot
// @Description Without a body the local snapshot file is reloaded. A JSON body or a multipart "file" replaces the store with the uploaded snapshot.
// @Tags        backup
// @Accept      json,multipart/form-data
// @Produce     json
// @Security    Bearer
// @Success     200 {object} map[string]interface{}
// @Failure     422 {object} map[string]string
// @Router      /backup/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	data, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(bytes.TrimSpace(data)) == 0 {
		report, err := h.svc.RestoreLocal(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"restore": report})
		return
	}

	report, commit, err := h.svc.RestoreUpload(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restore": report, "backup": commit})
}

func (h *BackupHandler) readUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("multipart restore needs a \"file\" part")
		}
		if fh.Size > maxRestoreSize {
			return nil, fmt.Errorf("snapshot is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	if c.Request.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxRestoreSize))
}
