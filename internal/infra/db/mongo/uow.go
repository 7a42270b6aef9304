package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"rentilia/internal/app/uow"
	domainbooking "rentilia/internal/domain/booking"
	domainitems "rentilia/internal/domain/items"
	domainuser "rentilia/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory binds the Mongo repositories into the application's unit of work.
// Mongo writes are atomic per document; cross-document consistency comes from
// the booking version check, not from a driver transaction, so Commit and
// Rollback are lifecycle markers rather than transaction boundaries.
type Factory struct {
	DB *mongo.Database

	BookingRepo  domainbooking.Repository
	ItemRepo     domainitems.Repository
	UserRepo     domainuser.Repository
	EvidenceRepo domainbooking.EvidenceRepository
	Failures     domainbooking.FailureLog
}

func (f Factory) Begin(_ context.Context, _ uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	return &Unit{factory: f}, nil
}

type Unit struct {
	factory Factory
}

func (u *Unit) Bookings() domainbooking.Repository         { return u.factory.BookingRepo }
func (u *Unit) Items() domainitems.Repository              { return u.factory.ItemRepo }
func (u *Unit) Users() domainuser.Repository               { return u.factory.UserRepo }
func (u *Unit) Evidence() domainbooking.EvidenceRepository { return u.factory.EvidenceRepo }
func (u *Unit) Failures() domainbooking.FailureLog         { return u.factory.Failures }

func (u *Unit) Commit(context.Context) error   { return nil }
func (u *Unit) Rollback(context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}
