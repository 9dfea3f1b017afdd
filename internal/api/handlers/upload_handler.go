// internal/api/handlers/upload_handler.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/andresuchdata/serverless-sim/internal/repository"
	"github.com/andresuchdata/serverless-sim/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	uploadFormField = "file"
	maxEventBytes   = 1 << 20
)

type UploadHandler struct {
	uploadService *service.UploadService
}

func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload stores a multipart file and returns the handler's proxy response
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile(uploadFormField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return
	}
	defer file.Close()

	resp := h.uploadService.UploadReader(c.Request.Context(), filepath.Base(header.Filename), file)
	c.JSON(resp.StatusCode, resp)
}

// ListRecords returns every metadata record
func (h *UploadHandler) ListRecords(c *gin.Context) {
	records, err := h.uploadService.Records(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetRecord returns the latest record for a filename
func (h *UploadHandler) GetRecord(c *gin.Context) {
	filename := c.Param("filename")
	record, err := h.uploadService.Record(c.Request.Context(), filename)
	if errors.Is(err, repository.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found", "filename": filename})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("failed to fetch record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetLogs returns the raw event log as plain text
func (h *UploadHandler) GetLogs(c *gin.Context) {
	logs, err := h.uploadService.Logs()
	if err != nil {
		log.Error().Err(err).Msg("failed to read event log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read logs"})
		return
	}

	c.String(http.StatusOK, logs)
}

// ListObjects returns the bucket listing, optionally narrowed by ?prefix=
func (h *UploadHandler) ListObjects(c *gin.Context) {
	objects, err := h.uploadService.Objects(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		log.Error().Err(err).Msg("failed to list objects")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list objects"})
		return
	}

	c.JSON(http.StatusOK, objects)
}

// Invoke runs the object-created handler on a raw S3 event body
func (h *UploadHandler) Invoke(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read event"})
		return
	}

	resp := h.uploadService.Invoke(c.Request.Context(), raw)
	c.JSON(resp.StatusCode, resp)
}
