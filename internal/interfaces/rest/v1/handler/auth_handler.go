package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/auth"
	"parkwatch/internal/infrastructure/database"
	"parkwatch/internal/infrastructure/logger"
)

type AuthHandler struct {
	admins AdminStore
	tokens *auth.TokenService
	params auth.Params
	logger logger.Logger
}

func NewAuthHandler(admins AdminStore, tokens *auth.TokenService, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		admins: admins,
		tokens: tokens,
		params: auth.DefaultParams,
		logger: logger.WithField("handler", "auth"),
	}
}

type RegisterRequest struct {
	AdminID  string `json:"admin_id"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	AdminID  string `json:"admin_id"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message   string `json:"message"`
	AdminName string `json:"adminName"`
	AdminID   string `json:"admin_id"`
	Role      string `json:"role"`
	Token     string `json:"token,omitempty"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, badRequest("invalid request body"))
		return
	}
	req.AdminID = strings.TrimSpace(req.AdminID)
	if req.AdminID == "" || req.Password == "" || req.Name == "" || req.Email == "" {
		writeError(c, h.logger, badRequest("admin_id, password, name and email are required"))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.params)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	err = h.admins.Create(c.Request.Context(), &domain.Admin{
		AdminID:        req.AdminID,
		HashedPassword: hash,
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Role:           domain.RoleAdmin,
	})
	if errors.Is(err, database.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"message": "admin id already exists"})
		return
	}
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Infof("Registered admin %s", req.AdminID)
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AdminID == "" || req.Password == "" {
		writeError(c, h.logger, badRequest("admin_id and password are required"))
		return
	}

	admin, err := h.admins.FindByID(c.Request.Context(), req.AdminID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(c, h.logger, unauthorized("invalid credentials"))
		return
	}
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	ok, err := auth.VerifyPassword(admin.HashedPassword, req.Password)
	if err != nil {
		h.logger.Warnf("Stored hash for %s is unusable: %v", admin.AdminID, err)
	}
	if !ok {
		writeError(c, h.logger, unauthorized("invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(admin)
	if err != nil && !errors.Is(err, auth.ErrAuthDisabled) {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:   "login succeeded",
		AdminName: admin.Name,
		AdminID:   admin.AdminID,
		Role:      admin.Role,
		Token:     token,
	})
}

// Me resolves the caller from ?admin_id, the X-Admin-Id header or a bearer
// token, in that order.
func (h *AuthHandler) Me(c *gin.Context) {
	adminID := strings.TrimSpace(c.Query("admin_id"))
	if adminID == "" {
		adminID = strings.TrimSpace(c.GetHeader("X-Admin-Id"))
	}
	if adminID == "" {
		if token, ok := auth.BearerToken(c.GetHeader("Authorization")); ok {
			claims, err := h.tokens.Validate(token)
			if err != nil {
				writeError(c, h.logger, unauthorized("invalid token"))
				return
			}
			adminID = claims.Subject
		}
	}
	if adminID == "" {
		writeError(c, h.logger, badRequest("admin_id is required"))
		return
	}

	admin, err := h.admins.FindByID(c.Request.Context(), adminID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"admin_id": admin.AdminID,
		"name":     admin.Name,
		"role":     admin.Role,
	})
}
