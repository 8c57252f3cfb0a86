package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moodlog/internal/logger"
	"moodlog/internal/middleware"
	"moodlog/internal/model"
	"moodlog/internal/service"
)

type AuthHandler struct{ auth *service.AuthService }

func NewAuthHandler(auth *service.AuthService) *AuthHandler { return &AuthHandler{auth: auth} }

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.Warn("login.failed", "username", req.Username)
		writeError(c, err)
		return
	}
	logger.Info("login.ok", "uid", u.ID)
	h.respondWithToken(c, http.StatusOK, u)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("register.ok", "uid", u.ID)
	h.respondWithToken(c, http.StatusCreated, u)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, u *model.User) {
	token, err := middleware.IssueToken(u.ID, u.Name)
	if err != nil {
		logger.Error("token.sign_failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, model.LoginResponse{
		Token: token,
		User:  model.UserInfo{ID: u.ID, Name: u.Name},
	})
}
