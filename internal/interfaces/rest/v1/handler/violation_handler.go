package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/repository"
)

type ViolationHandler struct {
	violations ViolationStore
	logger     logger.Logger
}

func NewViolationHandler(violations ViolationStore, logger logger.Logger) *ViolationHandler {
	return &ViolationHandler{violations: violations, logger: logger.WithField("handler", "violations")}
}

func (h *ViolationHandler) List(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			writeError(c, h.logger, badRequest("date must be YYYY-MM-DD"))
			return
		}
	}

	page, err := h.violations.List(c.Request.Context(), repository.ViolationFilter{
		Page:   positiveInt(c, "page", 1),
		Limit:  positiveInt(c, "limit", 10),
		Search: strings.TrimSpace(c.Query("search")),
		Date:   date,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ViolationHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	v, err := h.violations.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
