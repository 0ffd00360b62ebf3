package billing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultRate)
	require.NoError(t, err)
	return e
}

func TestEngine_Charge_MinimumWhenTargetNotAfterReference(t *testing.T) {
	e := newTestEngine(t)
	ref := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, Money(10599), e.Charge(ref, ref.Add(-time.Minute)))
	assert.Equal(t, Money(10599), e.Charge(ref, ref))
	assert.Equal(t, Money(10599), e.Charge(ref, ref.Add(-48*time.Hour)))
}

func TestEngine_Charge_UnitBoundary(t *testing.T) {
	e := newTestEngine(t)
	ref := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "105.99", e.Charge(ref, ref.Add(10*time.Minute)).String())
	assert.Equal(t, "211.98", e.Charge(ref, ref.Add(11*time.Minute)).String())
	assert.Equal(t, "105.99", e.Charge(ref, ref.Add(time.Millisecond)).String())
	assert.Equal(t, "317.97", e.Charge(ref, ref.Add(30*time.Minute)).String())
}

func TestEngine_Charge_Monotonic(t *testing.T) {
	e := newTestEngine(t)
	ref := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	prev := e.Charge(ref, ref.Add(-time.Hour))
	for d := -time.Hour; d <= 25*time.Hour; d += 7 * time.Minute {
		c := e.Charge(ref, ref.Add(d))
		assert.GreaterOrEqual(t, int64(c), int64(prev), "offset %s", d)
		prev = c
	}
}

func TestEngine_Charge_ThirtyMinuteUnit(t *testing.T) {
	e, err := NewEngine(Rate{PerUnit: 50000, Unit: 30 * time.Minute})
	require.NoError(t, err)
	ref := time.Now()

	assert.Equal(t, Money(50000), e.Charge(ref, ref.Add(30*time.Minute)))
	assert.Equal(t, Money(100000), e.Charge(ref, ref.Add(31*time.Minute)))
	assert.Equal(t, int64(2), e.Units(ref, ref.Add(31*time.Minute)))
}

func TestNewEngine_RejectsInvalidRate(t *testing.T) {
	_, err := NewEngine(Rate{PerUnit: 0, Unit: time.Minute})
	assert.Error(t, err)

	_, err = NewEngine(Rate{PerUnit: 100, Unit: 0})
	assert.Error(t, err)
}

func TestParseMoney(t *testing.T) {
	cases := map[string]Money{
		"105.99": 10599,
		"105.9":  10590,
		"105":    10500,
		"0.05":   5,
		".5":     50,
		"-1.25":  -125,
		"5.":     500,

		"92233720368547757.99": 9223372036854775799,
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{
		"", "-", ".", "1.234", "abc",
		"1.-5", "1.+5", "+1", "-+1", "--1", "1.5x", " 1 .5",
		"92233720368547758", "99999999999999999999",
	} {
		_, err := ParseMoney(in)
		assert.Error(t, err, in)
	}
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Charge Money `json:"charge"`
	}{Charge: 21198})
	require.NoError(t, err)
	assert.JSONEq(t, `{"charge":211.98}`, string(b))

	var in struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":211}`), &in))
	assert.Equal(t, Money(21100), in.Amount)
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"105.99"}`), &in))
	assert.Equal(t, Money(10599), in.Amount)
}
