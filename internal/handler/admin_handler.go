package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 100
	defaultPeriod     = "30d"
)

// analyticsPeriods maps the period presets to their length in days; 0 means all time
var analyticsPeriods = map[string]int{
	"7d":   7,
	"30d":  30,
	"90d":  90,
	"365d": 365,
	"all":  0,
}

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// Request types
type CreateUserRequest struct {
	Username string      `json:"username" binding:"required"`
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role"`
}

type SetRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

type PruneAuditRequest struct {
	Before time.Time `json:"before" binding:"required"`
}

// ListUsers returns every user with content counts
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	users, err := h.adminService.ListUsers(sess)
	if err != nil {
		respondError(c, err, "fetch users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": nonNil(users)})
}

// POST /api/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.adminService.CreateUser(sess, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		respondError(c, err, "create user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": userJSON(user)})
}

// PUT /api/admin/users/:id/role
func (h *AdminHandler) SetRole(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.adminService.SetRole(sess, userID, req.Role); err != nil {
		respondError(c, err, "change role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// PUT /api/admin/users/:id/password
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.adminService.ResetPassword(sess, userID, req.Password); err != nil {
		respondError(c, err, "reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset"})
}

// DeleteUser removes the user and everything they own
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	userID, ok := idParam(c, "id")
	if !ok {
		return
	}

	logger.Log.Info("Admin deleting user",
		zap.Uint("admin_id", sess.UserID),
		zap.Uint("target_user_id", userID),
	)

	if err := h.adminService.DeleteUser(sess, userID); err != nil {
		respondError(c, err, "delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// GET /api/admin/integrity
func (h *AdminHandler) IntegrityCheck(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	result, err := h.adminService.IntegrityCheck(sess)
	if err != nil {
		respondError(c, err, "check integrity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// POST /api/admin/vacuum
func (h *AdminHandler) Vacuum(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	if err := h.adminService.Vacuum(sess); err != nil {
		respondError(c, err, "vacuum database")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database vacuumed"})
}

// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	counts, err := h.adminService.Stats(sess)
	if err != nil {
		respondError(c, err, "load stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": counts})
}

// Analytics reports activity over a preset period or from an explicit since
// GET /api/admin/analytics?period=7d|30d|90d|365d|all&since=
func (h *AdminHandler) Analytics(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	since, ok := sinceQuery(c)
	if !ok {
		return
	}
	if since == nil {
		period := c.DefaultQuery("period", defaultPeriod)
		days, known := analyticsPeriods[period]
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period"})
			return
		}
		if days > 0 {
			t := time.Now().UTC().AddDate(0, 0, -days)
			since = &t
		}
	}

	report, err := h.adminService.Analytics(sess, since)
	if err != nil {
		respondError(c, err, "build analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": report})
}

// GET /api/admin/audit?limit=
func (h *AdminHandler) AuditLog(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	entries, err := h.adminService.AuditLog(sess, limit)
	if err != nil {
		respondError(c, err, "read audit log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": nonNil(entries)})
}

// POST /api/admin/audit/prune
func (h *AdminHandler) PruneAudit(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var req PruneAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	removed, err := h.adminService.PruneAudit(sess, req.Before)
	if err != nil {
		respondError(c, err, "prune audit log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
