package uow

import (
	"context"

	domainbooking "rentilia/internal/domain/booking"
	domainitems "rentilia/internal/domain/items"
	domainuser "rentilia/internal/domain/user"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Items() domainitems.Repository
	Users() domainuser.Repository
	Evidence() domainbooking.EvidenceRepository
	Failures() domainbooking.FailureLog

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
