package memory

import (
	"context"

	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
	domainitems "rentilia/internal/domain/items"
	domainuser "rentilia/internal/domain/user"
)

// Factory hands out units over the shared in-memory stores. There is no real
// transaction: commit and rollback are no-ops, which is acceptable for dev
// mode and tests.
type Factory struct {
	BookingRepo  *BookingRepository
	ItemRepo     *ItemRepository
	UserRepo     *UserRepository
	EvidenceRepo *EvidenceStore
	Failures     *FailureLog
}

func NewFactory() *Factory {
	return &Factory{
		BookingRepo:  NewBookingRepository(),
		ItemRepo:     NewItemRepository(),
		UserRepo:     NewUserRepository(),
		EvidenceRepo: NewEvidenceStore(),
		Failures:     NewFailureLog(),
	}
}

func (f *Factory) Begin(_ context.Context, _ uow.TxOptions) (uow.UnitOfWork, error) {
	return &Unit{factory: f}, nil
}

type Unit struct {
	factory *Factory
}

func (u *Unit) Bookings() domainbooking.Repository         { return u.factory.BookingRepo }
func (u *Unit) Items() domainitems.Repository              { return u.factory.ItemRepo }
func (u *Unit) Users() domainuser.Repository               { return u.factory.UserRepo }
func (u *Unit) Evidence() domainbooking.EvidenceRepository { return u.factory.EvidenceRepo }
func (u *Unit) Failures() domainbooking.FailureLog         { return u.factory.Failures }

func (u *Unit) Commit(context.Context) error   { return nil }
func (u *Unit) Rollback(context.Context) error { return nil }

var _ uow.UoWFactory = (*Factory)(nil)
