package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "docbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultDoctorCacheTTL = 5 * time.Minute

	DefaultKafkaTopic = "appointment-events"

	DefaultPort = "8080"

	DefaultTokenTTL = 24 * time.Hour

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBookingWindowDays = 7
	DefaultSlotDayStartHour  = 10
	DefaultSlotDayEndHour    = 21

	DefaultPaginationLimit = 100
)
