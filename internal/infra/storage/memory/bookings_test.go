package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rentilia/internal/domain/booking"
)

func TestBookingRepositoryVersionCheck(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()

	b := &domainbooking.Booking{ID: "bk-1", RenterID: "renter-1"}
	require.NoError(t, repo.Save(ctx, b))
	assert.Equal(t, int64(1), b.Version)

	first, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))

	// The second copy still carries the old version and must lose the race.
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestBookingRepositoryRejectsStaleInsert(t *testing.T) {
	repo := NewBookingRepository()
	b := &domainbooking.Booking{ID: "bk-ghost", Version: 3}
	err := repo.Save(context.Background(), b)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestBookingRepositoryReturnsClones(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	require.NoError(t, repo.Save(ctx, &domainbooking.Booking{ID: "bk-1", RenterID: "renter-1"}))

	loaded, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	loaded.RenterID = "someone-else"

	again, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "renter-1", again.RenterID)
}
