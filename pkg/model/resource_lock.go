package model

import "time"

// ResourceLock is an advisory lock document keyed by resource ID. A creation
// transaction holds the lock while it checks for conflicts and commits, so
// two writers on the same resource serialize instead of double booking.
// ExpiresAt backs a TTL index so a crashed holder cannot wedge the resource.
type ResourceLock struct {
	ResourceID string    `json:"resource_id" bson:"_id"`
	Owner      string    `json:"owner" bson:"owner"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt  time.Time `json:"expires_at" bson:"expires_at"`
}
