package catalog

import (
	"context"
	"errors"
	"fmt"

	"khidma/internal/domain/shared/money"
)

var (
	ErrServiceNotFound = errors.New("catalog: service not found")
	// An inactive service is invisible to booking flows, so the error carries
	// the not-found identity as well.
	ErrServiceInactive = fmt.Errorf("%w: service not active", ErrServiceNotFound)
)

type ServiceID string

// Service is a catalog entry a customer can book. The booking aggregate
// snapshots BasePrice at creation; later catalog edits never touch live
// bookings.
type Service struct {
	ID        ServiceID
	Name      string
	Category  string
	BasePrice money.Money
	Active    bool
}

type Repository interface {
	ByID(ctx context.Context, id ServiceID) (*Service, error)
	Save(ctx context.Context, svc *Service) error
}

// ActivePrice returns the bookable price or fails when the service cannot be
// booked.
func (s *Service) ActivePrice() (money.Money, error) {
	if !s.Active {
		return money.Money{}, ErrServiceInactive
	}
	return s.BasePrice, nil
}
