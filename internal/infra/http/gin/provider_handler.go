package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	providerapp "khidma/internal/app/handlers/provider"
	"khidma/internal/app/queries"
	domainbooking "khidma/internal/domain/booking"
)

type ProviderHandler struct {
	Queries queries.Bus
}

func (h ProviderHandler) Earnings(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleProvider)
	if !ok {
		return
	}
	view, err := queries.Ask[providerapp.GetEarningsQuery, providerapp.EarningsView](c.Request.Context(), h.Queries, providerapp.GetEarningsQuery{ProviderID: user.ID})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
