package controller

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"caresite/confirm"
	"caresite/storage"
	"caresite/syncer"
	"caresite/utils"
)

type MediaController struct {
	sync   *syncer.Controller
	modal  *confirm.Modal
	hub    *EventHub
	bucket *storage.Bucket
	logger *log.Logger
}

func NewMediaController(sync *syncer.Controller, modal *confirm.Modal, hub *EventHub, bucket *storage.Bucket, logger *log.Logger) *MediaController {
	return &MediaController{sync: sync, modal: modal, hub: hub, bucket: bucket, logger: logger}
}

// ServeObject serves a stored media object with the content type and
// cache policy it was uploaded with.
func (m *MediaController) ServeObject(c *fiber.Ctx) error {
	path := c.Params("path")

	meta, err := m.bucket.Meta(path)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Object not found", nil)
	}

	full, err := m.bucket.FilePath(path)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Object not found", nil)
	}

	if meta.ContentType != "" {
		c.Set(fiber.HeaderContentType, meta.ContentType)
	}
	if meta.CacheControl != "" {
		c.Set(fiber.HeaderCacheControl, meta.CacheControl)
	}
	return c.SendFile(full)
}

// ListMedia serves the gallery from the in-memory mirror, newest first.
func (m *MediaController) ListMedia(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(m.sync.Media()))
}

// UploadMedia accepts a multipart file and runs the upload sequence.
// Progress steps are broadcast over the events websocket; they are a
// fixed cosmetic sequence, not a transfer measurement.
func (m *MediaController) UploadMedia(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "No file uploaded", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read file", err)
	}
	defer file.Close()

	blob, err := io.ReadAll(file)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read file", err)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	progress := func(percent int, stage string) {
		m.hub.Broadcast(WSEvent{
			Type: "upload-progress",
			Data: fiber.Map{
				"file":    fileHeader.Filename,
				"percent": percent,
				"stage":   stage,
			},
		})
	}

	item, err := m.sync.UploadMedia(c.Context(), fileHeader.Filename, blob, contentType, progress)
	if err != nil {
		utils.LogError("media_upload", err, map[string]interface{}{"file": fileHeader.Filename})
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Upload failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(item))
}

// RequestDeleteMedia queues the media deletion behind the confirmation
// modal.
func (m *MediaController) RequestDeleteMedia(c *fiber.Ctx) error {
	id := c.Params("id")

	err := m.modal.Open(fmt.Sprintf("Delete media %s", id), func() error {
		return m.sync.DeleteMedia(context.Background(), id)
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Another confirmation is already pending", nil)
	}

	label, _ := m.modal.Pending()
	return c.JSON(fiber.Map{
		"pending_confirmation": label,
	})
}
