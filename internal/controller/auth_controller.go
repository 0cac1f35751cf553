package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crop-irrigation-tracker/internal/model"
	"crop-irrigation-tracker/internal/service"
)

// AuthController handles registration and login
type AuthController struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(authService service.AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register handles POST /v1/auth/register
func (c *AuthController) Register(ctx *gin.Context) {
	startTime := time.Now()
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}

	user, err := c.authService.Register(ctx.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to register user", err)
		return
	}
	c.respondSession(ctx, startTime, http.StatusCreated, user)
}

// Login handles POST /v1/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	startTime := time.Now()
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body", err.Error())
		return
	}

	user, err := c.authService.Verify(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, c.logger, startTime, "login failed", err)
		return
	}
	c.respondSession(ctx, startTime, http.StatusOK, user)
}

func (c *AuthController) respondSession(ctx *gin.Context, startTime time.Time, status int, user *model.User) {
	token, err := c.authService.IssueToken(user)
	if err != nil {
		respondError(ctx, c.logger, startTime, "failed to issue token", err)
		return
	}
	ctx.JSON(status, sessionResponse{User: user, Token: token})
}
