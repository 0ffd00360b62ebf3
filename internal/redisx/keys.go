package redisx

import "time"

const (
	// Webhook outcome per payment: idem:webhook:{tx_ref} -> outcome JSON
	KeyWebhookOutcome = "idem:webhook:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
