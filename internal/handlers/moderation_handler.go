package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/contentguard/backend/internal/models"
	"github.com/contentguard/backend/internal/moderation"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Analyzer runs one submission through the moderation pipeline
type Analyzer interface {
	Analyze(ctx context.Context, ct models.ContentType, payload []byte) (*models.ModerationDecision, error)
}

var allowedImageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// multipart framing allowance on top of the file itself
const formOverhead = 1 << 20

type ModerationHandler struct {
	pipeline       Analyzer
	maxUploadBytes int64
}

func NewModerationHandler(pipeline Analyzer, maxUploadBytes int64) *ModerationHandler {
	return &ModerationHandler{pipeline: pipeline, maxUploadBytes: maxUploadBytes}
}

// ModerateText classifies a JSON {"text": ...} body
func (h *ModerationHandler) ModerateText(c *gin.Context) {
	var req models.ModerateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		code := moderation.CodeMalformedRequest
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			code = moderation.CodeEmptyText
		}
		moderationError(c, moderation.ValidationError("bind", code, err), nil)
		return
	}

	h.respond(c, models.ContentTypeText, []byte(req.Text))
}

// ModerateImage classifies the multipart "file" upload
func (h *ModerationHandler) ModerateImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			moderationError(c, moderation.ValidationError("upload", moderation.CodePayloadTooLarge, err), nil)
			return
		}
		moderationError(c, moderation.ValidationError("upload", moderation.CodeInvalidImage, fmt.Errorf("file is required: %w", err)), nil)
		return
	}

	if header.Size > h.maxUploadBytes {
		moderationError(c, moderation.ValidationError("upload", moderation.CodePayloadTooLarge,
			fmt.Errorf("file is %d bytes, limit is %d", header.Size, h.maxUploadBytes)), nil)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		moderationError(c, moderation.ValidationError("upload", moderation.CodeInvalidImage,
			fmt.Errorf("unsupported file extension %q", ext)), nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		moderationError(c, moderation.ValidationError("upload", moderation.CodeInvalidImage, err), nil)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes))
	if err != nil {
		moderationError(c, moderation.ValidationError("upload", moderation.CodeInvalidImage, err), nil)
		return
	}

	h.respond(c, models.ContentTypeImage, payload)
}

func (h *ModerationHandler) respond(c *gin.Context, ct models.ContentType, payload []byte) {
	decision, err := h.pipeline.Analyze(c.Request.Context(), ct, payload)
	if err != nil {
		moderationError(c, err, decision)
		return
	}

	c.JSON(http.StatusOK, models.ModerateResponse{Decision: *decision, Logged: true})
}
