package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentilia/internal/domain/shared/money"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := money.New(1500, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = money.New(100, "dollars")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestAddAndSubRequireSameCurrency(t *testing.T) {
	usd := money.Must(1000, "USD")
	eur := money.Must(1000, "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	sum, err := usd.Add(money.Must(250, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Amount)

	diff, err := usd.Sub(money.Must(300, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(700), diff.Amount)
}

func TestPercentTruncatesToCent(t *testing.T) {
	base := money.Must(1015, "USD")
	fee := base.Percent(10)
	assert.Equal(t, int64(101), fee.Amount)
}

func TestClampTo(t *testing.T) {
	deposit := money.Must(10000, "USD")

	over, err := money.Must(15000, "USD").ClampTo(deposit)
	require.NoError(t, err)
	assert.Equal(t, deposit.Amount, over.Amount)

	under, err := money.Must(4000, "USD").ClampTo(deposit)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), under.Amount)

	_, err = money.Must(100, "EUR").ClampTo(deposit)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}
