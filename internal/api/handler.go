package api

import (
	"errors"
	"net/http"

	"github.com/familybicons/socios-server/internal/auth"
	"github.com/familybicons/socios-server/internal/models"
	"github.com/familybicons/socios-server/internal/service"
	"github.com/familybicons/socios-server/internal/session"
	"github.com/familybicons/socios-server/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler exposes the member portal over HTTP
type Handler struct {
	svc     service.Service
	store   session.Store
	tokens  *auth.TokenIssuer
	limiter *LoginLimiter
	log     *utils.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, store session.Store, tokens *auth.TokenIssuer, limiter *LoginLimiter, log *utils.Logger) *Handler {
	return &Handler{
		svc:     svc,
		store:   store,
		tokens:  tokens,
		limiter: limiter,
		log:     log,
	}
}

// SetupRoutes registers all routes. metricsHandler may be nil.
func (h *Handler) SetupRoutes(router *gin.Engine, metricsHandler http.Handler) {
	router.GET("/health", h.Health)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.limiter.Middleware(), h.Login)

	protected := api.Group("")
	protected.Use(AuthMiddleware(h.tokens, h.store))
	protected.POST("/auth/logout", h.Logout)
	protected.GET("/dashboard", h.Dashboard)
	protected.POST("/loans", h.RequestLoan)
	protected.PUT("/profile/password", h.ChangePassword)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Login opens a new session for valid credentials
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	sess := session.New()
	if err := h.svc.SubmitCredentials(ctx, sess, req.Username, req.Password); err != nil {
		// Same answer for unknown user, wrong password and store outage
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status:  "error",
			Code:    "INVALID_CREDENTIALS",
			Message: "Invalid credentials",
		})
		return
	}

	if err := h.store.Save(ctx, sess); err != nil {
		h.log.Error("error saving session: %v", err)
		writeError(c, service.ErrServiceUnavailable)
		return
	}

	token, err := h.tokens.Issue(sess.Username, sess.ID)
	if err != nil {
		h.log.Error("error issuing token: %v", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Status:    "success",
		Username:  sess.Username,
		Token:     token,
		ExpiresIn: int(h.tokens.TTL().Seconds()),
	})
}

// Logout closes the current session
func (h *Handler) Logout(c *gin.Context) {
	sess := currentSession(c)
	h.svc.Logout(sess)
	h.dropSession(c, sess.ID)

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "Logged out",
	})
}

// Dashboard returns the derived values of all dashboard tabs
func (h *Handler) Dashboard(c *gin.Context) {
	sess := currentSession(c)

	dashboard, err := h.svc.ViewDashboard(sess)
	if err != nil {
		writeError(c, err)
		return
	}
	// The session may have been closed while this request was running
	if !h.touch(c, sess) {
		unauthorized(c, "Session expired")
		return
	}

	c.JSON(http.StatusOK, models.DashboardResponse{
		Status:    "success",
		Dashboard: *dashboard,
	})
}

// RequestLoan submits a loan request for the current member
func (h *Handler) RequestLoan(c *gin.Context) {
	var req models.LoanRequestForm
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess := currentSession(c)
	if err := h.svc.RequestLoan(c.Request.Context(), sess, req.Amount, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	h.touch(c, sess)

	c.JSON(http.StatusCreated, models.MessageResponse{
		Status:  "success",
		Message: "Loan request submitted",
	})
}

// ChangePassword updates the member password and closes the session
func (h *Handler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess := currentSession(c)
	if err := h.svc.ChangePassword(c.Request.Context(), sess, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(c, err)
		return
	}
	h.dropSession(c, sess.ID)

	c.JSON(http.StatusOK, models.MessageResponse{
		Status:  "success",
		Message: "Password updated. Please log in again.",
	})
}

// Helper methods

// touch records activity on a session that still exists. It reports false
// once the session has been closed.
func (h *Handler) touch(c *gin.Context, sess *session.Session) bool {
	sess.Touch()
	err := h.store.Refresh(c.Request.Context(), sess)
	if errors.Is(err, session.ErrNotFound) {
		return false
	}
	if err != nil {
		h.log.Warn("error refreshing session %s: %v", sess.ID, err)
	}
	return true
}

func (h *Handler) dropSession(c *gin.Context, id string) {
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.log.Error("error deleting session %s: %v", id, err)
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: "Invalid request body: " + err.Error(),
	})
}

// writeError maps service errors to HTTP responses
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Status:  "error",
			Code:    "VALIDATION_ERROR",
			Message: verr.Message,
			Field:   verr.Field,
		})
	case errors.Is(err, service.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status:  "error",
			Code:    "UNAUTHORIZED",
			Message: "Authentication required",
		})
	case errors.Is(err, service.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Status:  "error",
			Code:    "SERVICE_UNAVAILABLE",
			Message: "The service is temporarily unavailable, please try again",
		})
	case errors.Is(err, service.ErrPasswordChangeFailed):
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "REQUEST_FAILED",
			Message: "Password could not be changed",
		})
	case errors.Is(err, service.ErrLoanRequestFailed):
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "REQUEST_FAILED",
			Message: "Loan request could not be submitted",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		})
	}
}
