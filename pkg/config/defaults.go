package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "resbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 50
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// How far into the future an unbounded series is expanded when the
	// caller gives no explicit range. Two years keeps conflict checks and
	// availability views finite without hiding anything a human would book.
	DefaultUnboundedHorizon = 2 * 365 * 24 * time.Hour

	// Occurrences of an unbounded series within this padding on both sides
	// of a requested range are considered when detecting conflicts.
	DefaultConflictPadding = 7 * 24 * time.Hour

	DefaultRecommendHorizon   = 90 * 24 * time.Hour
	DefaultRecommendStep      = 1 * time.Hour
	DefaultMaxSuggestions     = 5
	DefaultMaxSeriesInstances = 5000

	DefaultLockTTL           = 10 * time.Second
	DefaultLockRetryInterval = 50 * time.Millisecond

	DefaultSlotTokenTTL = 15 * time.Minute

	DefaultKafkaTopic = "resbook.bookings"

	DefaultPaginationLimit = 100
)
