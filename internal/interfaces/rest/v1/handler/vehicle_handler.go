package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/logger"
)

type VehicleHandler struct {
	vehicles VehicleStore
	uploader FrameUploader
	maxBytes int64
	logger   logger.Logger
}

func NewVehicleHandler(vehicles VehicleStore, uploader FrameUploader, maxBytes int64, logger logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicles: vehicles,
		uploader: uploader,
		maxBytes: maxBytes,
		logger:   logger.WithField("handler", "vehicles"),
	}
}

// Upload handles POST /api/vehicles/upload with multipart fields image and
// plateNumber. The frame goes to object storage first, then the vehicle row
// records its URL.
func (h *VehicleHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	plate := strings.TrimSpace(c.PostForm("plateNumber"))
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "image too large"})
			return
		}
	}
	if plate == "" || err != nil {
		writeError(c, h.logger, badRequest("plateNumber and image are required"))
		return
	}
	defer file.Close()

	url, err := h.uploader.UploadFrame(c.Request.Context(), plate, file, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	vehicle := domain.Vehicle{PlateNumber: plate, ImageURL: url}
	if err := h.vehicles.Insert(c.Request.Context(), vehicle); err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Infof("Stored frame for %s at %s", plate, url)
	c.JSON(http.StatusCreated, vehicle)
}
