package settings

import (
	"net/url"
	"time"
)

type EngineSettings struct {
	// DrainOnStop makes Stop commit every queued action before the worker exits.
	DrainOnStop bool
	// DefaultPermissionLevel is used by Store, one of USER, SUPER_USER or SYSTEM.
	DefaultPermissionLevel string
	// CommitIdleWait bounds how long the worker sleeps on an empty queue without a wake-up.
	CommitIdleWait time.Duration
	// CommitRetries is the number of attempts for a store write that fails with a
	// non-conflict error, at least one.
	CommitRetries      int
	CommitRetryBackoff time.Duration
}

type StoreSettings struct {
	StoreURL             *url.URL
	DBTimeout            time.Duration
	PostgresMaxIdleConns int
	PostgresMaxOpenConns int
	CacheEnabled         bool
	CacheTTL             time.Duration
}

type KafkaSettings struct {
	Enabled     bool
	EventsURL   *url.URL
	Hosts       string
	EventsTopic string
}

type GRPCSettings struct {
	// ListenAddress enables the SubmissionAPI gRPC service when set.
	ListenAddress     string
	MaxMessageSize    int
	PrometheusMetrics bool
}

type TracingSettings struct {
	Enabled    bool
	SampleRate float64
	Collector  *url.URL
}

type Settings struct {
	ServiceName      string
	LogLevel         string
	LoggerType       string
	DataFolder       string
	MetricsNamespace string
	Engine           EngineSettings
	Store            StoreSettings
	Kafka            KafkaSettings
	GRPC             GRPCSettings
	Tracing          TracingSettings
}
