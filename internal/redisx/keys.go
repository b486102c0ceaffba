package redisx

import "time"

const (
	// Cache status order: order_status:{order_id} -> {"status":"..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Search projection: doc hash per order + secondary indexes.
	KeyOrderDoc    = "orderdoc:%s"
	KeyIndexStatus = "idx:order:status:%s"
	KeyIndexDate   = "idx:order:date"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
