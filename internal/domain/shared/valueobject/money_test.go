package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), BBD)
		require.NoError(t, err)
		assert.Equal(t, BBD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})

	t.Run("must variant panics on empty currency", func(t *testing.T) {
		assert.Panics(t, func() { MustNewMoney(decimal.NewFromInt(1), "") })
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", BBD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", BBD)
		assert.Error(t, err)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a, _ := NewMoneyFromInt(100, BBD)
	b, _ := NewMoneyFromInt(40, BBD)
	usd, _ := NewMoneyFromInt(10, USD)

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "140", sum.Amount().String())
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, "60", diff.Amount().String())
	})

	t.Run("currency mismatch is rejected", func(t *testing.T) {
		_, err := a.Add(usd)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCurrencyMismatch))

		_, err = a.Subtract(usd)
		assert.True(t, errors.Is(err, ErrCurrencyMismatch))

		_, err = a.LessThan(usd)
		assert.True(t, errors.Is(err, ErrCurrencyMismatch))
	})

	t.Run("divide by zero", func(t *testing.T) {
		_, err := a.Divide(decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("multiply by int", func(t *testing.T) {
		assert.Equal(t, "300", a.MultiplyByInt(3).Amount().String())
	})
}

func TestMoney_Percentages(t *testing.T) {
	price, _ := NewMoneyFromInt(200, BBD)

	assert.True(t, price.CalculatePercentage(decimal.NewFromInt(15)).Amount().Equal(decimal.NewFromInt(30)))
	assert.True(t, price.ApplyDiscount(decimal.NewFromInt(15)).Amount().Equal(decimal.NewFromInt(170)))
	assert.True(t, price.ApplyMarkup(decimal.NewFromInt(150)).Amount().Equal(decimal.NewFromInt(500)))
}

func TestMoney_FloorAtZero(t *testing.T) {
	neg, _ := NewMoneyFromInt(-5, BBD)
	assert.True(t, neg.FloorAtZero().IsZero())

	pos, _ := NewMoneyFromInt(5, BBD)
	assert.True(t, pos.FloorAtZero().Equals(pos))
}

func TestMoney_Comparisons(t *testing.T) {
	a, _ := NewMoneyFromInt(10, BBD)
	b, _ := NewMoneyFromInt(20, BBD)

	lt, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, gt)

	gte, err := a.GreaterThanOrEqual(a)
	require.NoError(t, err)
	assert.True(t, gte)
}

func TestMoney_String(t *testing.T) {
	m, _ := NewMoneyFromFloat(12.5, BBD)
	assert.Equal(t, "12.50 BBD", m.String())
	assert.Equal(t, "12.500", m.StringFixed(3))
}

func TestMoney_JSON(t *testing.T) {
	m, _ := NewMoneyFromString("99.99", XCD)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"99.99","currency":"XCD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"10"}`), &decoded))
	assert.Equal(t, DefaultCurrency, decoded.Currency())

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"abc","currency":"BBD"}`), &decoded))
}
