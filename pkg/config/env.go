package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvUnboundedHorizon   = "UNBOUNDED_HORIZON"
	EnvConflictPadding    = "CONFLICT_PADDING"
	EnvRecommendHorizon   = "RECOMMEND_HORIZON"
	EnvRecommendStep      = "RECOMMEND_STEP"
	EnvMaxSuggestions     = "MAX_SUGGESTIONS"
	EnvMaxSeriesInstances = "MAX_SERIES_INSTANCES"

	EnvLockTTL           = "LOCK_TTL"
	EnvLockRetryInterval = "LOCK_RETRY_INTERVAL"

	EnvSlotTokenSecret = "SLOT_TOKEN_SECRET"
	EnvSlotTokenTTL    = "SLOT_TOKEN_TTL"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvKafkaTopic   = "KAFKA_TOPIC"
)
