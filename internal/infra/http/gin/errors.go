package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	domainprovider "khidma/internal/domain/provider"
	"khidma/internal/domain/pricing"
	"khidma/internal/domain/shared/money"
)

// writeError translates domain failures into HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domaincatalog.ErrServiceNotFound),
		errors.Is(err, domainprovider.ErrProviderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainbooking.ErrAlreadyAssigned),
		errors.Is(err, domainbooking.ErrPricingFrozen),
		errors.Is(err, domainbooking.ErrConcurrentUpdate),
		errors.Is(err, domainprovider.ErrAlreadyCredited):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrCustomerRequired),
		errors.Is(err, domainbooking.ErrServiceRequired),
		errors.Is(err, domainbooking.ErrProviderRequired),
		errors.Is(err, domainbooking.ErrPastSchedule),
		errors.Is(err, domainprovider.ErrProviderInactive),
		errors.Is(err, pricing.ErrNegativeComponent),
		errors.Is(err, pricing.ErrInvalidRate),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
