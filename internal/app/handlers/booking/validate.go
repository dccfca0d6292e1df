package booking

import (
	"context"
	"strings"

	domainbooking "khidma/internal/domain/booking"
)

// CommandValidator rejects structurally invalid commands before they reach a
// transaction. Semantic rules stay in the aggregate.
type CommandValidator struct{}

func (CommandValidator) Validate(ctx context.Context, message any) error {
	switch cmd := message.(type) {
	case CreateBookingCommand:
		if strings.TrimSpace(cmd.CustomerID) == "" {
			return domainbooking.ErrCustomerRequired
		}
		if strings.TrimSpace(cmd.ServiceID) == "" {
			return domainbooking.ErrServiceRequired
		}
	case AssignProviderCommand:
		if strings.TrimSpace(cmd.ProviderID) == "" {
			return domainbooking.ErrProviderRequired
		}
		if strings.TrimSpace(cmd.BookingID) == "" {
			return domainbooking.ErrBookingNotFound
		}
	case AcceptBookingCommand:
		return requireProvider(cmd.BookingID, cmd.ProviderID)
	case RejectBookingCommand:
		return requireProvider(cmd.BookingID, cmd.ProviderID)
	case DepartCommand:
		return requireProvider(cmd.BookingID, cmd.ProviderID)
	case ArriveCommand:
		return requireProvider(cmd.BookingID, cmd.ProviderID)
	case StartServiceCommand:
		return requireProvider(cmd.BookingID, cmd.ProviderID)
	case CompleteBookingCommand:
		return requireProvider(cmd.BookingID, cmd.ProviderID)
	}
	return nil
}

func requireProvider(bookingID, providerID string) error {
	if strings.TrimSpace(bookingID) == "" {
		return domainbooking.ErrBookingNotFound
	}
	if strings.TrimSpace(providerID) == "" {
		return domainbooking.ErrProviderRequired
	}
	return nil
}
