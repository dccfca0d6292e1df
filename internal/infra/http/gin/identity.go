package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainbooking "khidma/internal/domain/booking"
)

const principalContextKey = "khidma.principal"

// principal is the caller identity propagated by the API gateway. Token
// verification happens upstream; we only read the trusted headers.
type principal struct {
	ID   string
	Role domainbooking.Role
}

func (p principal) Actor() domainbooking.Actor {
	return domainbooking.Actor{Role: p.Role, ID: p.ID}
}

// IdentityMiddleware resolves the caller from X-User-ID / X-User-Role headers.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-User-ID"))
		role := strings.ToLower(strings.TrimSpace(c.GetHeader("X-User-Role")))
		if id != "" && validRole(role) {
			c.Set(principalContextKey, principal{ID: id, Role: domainbooking.Role(role)})
		}
		c.Next()
	}
}

func validRole(role string) bool {
	switch domainbooking.Role(role) {
	case domainbooking.RoleCustomer, domainbooking.RoleProvider, domainbooking.RoleAdmin:
		return true
	}
	return false
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireRole(c *gin.Context, roles ...domainbooking.Role) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	if len(roles) == 0 {
		return p, true
	}
	for _, role := range roles {
		if p.Role == role || p.Role == domainbooking.RoleAdmin {
			return p, true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	return principal{}, false
}
