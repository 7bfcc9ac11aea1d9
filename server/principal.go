package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/truongnh28/bookstore/domain"
)

// capability is the relationship an operation requires between caller
// and target. Every route declares exactly one; the entry point enforces
// it before core logic runs.
type capability int

const (
	capUser capability = iota
	capSelf
	capSelfOrAdmin
	capAdmin
	capSuperAdmin
)

// principalFrom trusts the identity headers set by the auth boundary;
// authentication itself happens outside this core.
func principalFrom(c *gin.Context) domain.Principal {
	p := domain.Principal{
		Role:       domain.Role(c.GetHeader("X-Role")),
		SuperAdmin: c.GetHeader("X-Super-Admin") == "true",
	}
	if id, err := strconv.ParseUint(c.GetHeader("X-User-Id"), 10, 64); err == nil {
		p.UserID = uint(id)
	}
	if id, err := strconv.ParseUint(c.GetHeader("X-Admin-Id"), 10, 64); err == nil {
		p.AdminID = uint(id)
	}
	return p
}

// authorize resolves the caller and checks the declared capability
// against targetUserID (relevant for capSelf/capSelfOrAdmin). It writes
// the 401 itself so handlers just bail on !ok.
func authorize(c *gin.Context, required capability, targetUserID uint) (domain.Principal, bool) {
	p := principalFrom(c)

	allowed := false
	switch required {
	case capUser:
		allowed = p.Role == domain.RoleUser && p.UserID != 0
	case capSelf:
		allowed = p.Role == domain.RoleUser && p.UserID != 0 && p.UserID == targetUserID
	case capSelfOrAdmin:
		allowed = p.Role == domain.RoleAdmin ||
			(p.Role == domain.RoleUser && p.UserID != 0 && p.UserID == targetUserID)
	case capAdmin:
		allowed = p.Role == domain.RoleAdmin
	case capSuperAdmin:
		allowed = p.Role == domain.RoleAdmin && p.SuperAdmin
	}

	if !allowed {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response{
			Success: false,
			Message: "unauthorized",
			Error:   domain.ErrUnauthorized.Error(),
		})
		return domain.Principal{}, false
	}
	return p, true
}
