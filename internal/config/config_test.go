package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", c.HTTPAddr)
	assert.Equal(t, BackendPostgres, c.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.Equal(t, billing.Rate{PerUnit: 10599, Unit: 10 * time.Minute}, c.Rate())
	assert.Equal(t, 24*time.Hour, c.Limits().MaxReservation)
	assert.Equal(t, "UTC", c.Location().String())
	assert.Equal(t, "prod", c.Stage)
	assert.False(t, c.Debug(), "an unset STAGE must not leak error causes")
	assert.Equal(t, 3, c.ReconcilerAttempts)
	assert.Equal(t, 500*time.Millisecond, c.ReconcilerBackoff)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("STORE_BACKEND", "DynamoDB")
	t.Setenv("RATE_PER_UNIT", "50")
	t.Setenv("BILLING_UNIT", "15m")
	t.Setenv("STAGE", "dev")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendDynamo, c.StoreBackend)
	assert.Equal(t, billing.Money(5000), c.Rate().PerUnit)
	assert.Equal(t, 15*time.Minute, c.Rate().Unit)
	assert.True(t, c.Debug())
}

func TestValidate_Rejects(t *testing.T) {
	base := func() Config {
		return Config{
			Timezone:       "UTC",
			RatePerUnit:    "105.99",
			BillingUnit:    10 * time.Minute,
			MinReservation: 10 * time.Minute,
			MaxReservation: 24 * time.Hour,
			StoreBackend:   BackendMemory,
		}
	}
	cases := map[string]func(c *Config){
		"unknown timezone": func(c *Config) { c.Timezone = "Mars/Olympus" },
		"bad rate":         func(c *Config) { c.RatePerUnit = "ten" },
		"zero rate":        func(c *Config) { c.RatePerUnit = "0" },
		"zero unit":        func(c *Config) { c.BillingUnit = 0 },
		"min above max":    func(c *Config) { c.MinReservation = 25 * time.Hour },
		"unknown backend":  func(c *Config) { c.StoreBackend = "mongo" },
		"postgres no dsn":  func(c *Config) { c.StoreBackend = BackendPostgres },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	c := base()
	require.NoError(t, c.Validate())
	assert.Equal(t, 1, c.ReconcilerWorkers)
}
