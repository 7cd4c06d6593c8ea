package api

import "time"

// Config holds the HTTP server settings.
type Config struct {
	Addr              string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	ReadTimeout       time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s" validate:"gt=0"`
	WriteTimeout      time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"45s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s" validate:"gt=0"`
	CORSOrigins       []string      `envconfig:"HTTP_CORS_ORIGINS"`
	RateLimitRequests int           `envconfig:"HTTP_RATE_LIMIT_REQUESTS" default:"60" validate:"gte=0"`
	RateLimitWindow   time.Duration `envconfig:"HTTP_RATE_LIMIT_WINDOW" default:"1m" validate:"gt=0"`
}
