package booking

import (
	"context"
	"errors"

	"khidma/internal/app/outbox"
	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
)

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// withUnit runs fn inside the ambient unit of work when the transaction
// middleware provided one, otherwise it manages its own begin/commit/rollback.
func withUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()
	if err := fn(execCtx, unit); err != nil {
		return err
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	committed = true
	return nil
}

// drainEvents moves pending aggregate events into the transactional outbox.
func drainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, b *domainbooking.Booking) error {
	pending := b.PendingEvents()
	b.ClearEvents()
	return outbox.RecordDomainEvents(ctx, box, encoder, pending)
}

func eventEncoder(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}
