package settings

import (
	"strconv"
	"time"
)

func NewSettings() *Settings {
	sampleRate, err := strconv.ParseFloat(getString("tracing_sample_rate", "0.01"), 64)
	if err != nil {
		sampleRate = 0.01
	}

	return &Settings{
		ServiceName:      getString("SERVICE_NAME", "atomengine"),
		LogLevel:         getString("logLevel", "INFO"),
		LoggerType:       getString("logger", "zerolog"),
		DataFolder:       getString("dataFolder", "data"),
		MetricsNamespace: getString("metrics_namespace", "atomengine"),
		Engine: EngineSettings{
			DrainOnStop:            getBool("engine_drainOnStop", true),
			DefaultPermissionLevel: getString("engine_defaultPermissionLevel", "USER"),
			CommitIdleWait:         getDuration("engine_commitIdleWait", 100*time.Millisecond),
			CommitRetries:          getInt("engine_commitRetries", 3),
			CommitRetryBackoff:     getDuration("engine_commitRetryBackoff", 50*time.Millisecond),
		},
		Store: StoreSettings{
			StoreURL:             getURL("engineStore", "sqlite:///engine"),
			DBTimeout:            getDuration("engineStore_dbTimeout", 5*time.Second),
			PostgresMaxIdleConns: getInt("engineStore_postgresMaxIdleConns", 10),
			PostgresMaxOpenConns: getInt("engineStore_postgresMaxOpenConns", 80),
			CacheEnabled:         getBool("engineStore_cacheEnabled", true),
			CacheTTL:             getDuration("engineStore_cacheTTL", 10*time.Minute),
		},
		Kafka: KafkaSettings{
			Enabled:     getBool("kafka_enabled", false),
			EventsURL:   getURL("kafka_atomEventsConfig", ""),
			Hosts:       getString("KAFKA_HOSTS", "localhost:9092"),
			EventsTopic: getString("KAFKA_ATOM_EVENTS", "atom-events"),
		},
		GRPC: GRPCSettings{
			ListenAddress:     getString("submission_grpcListenAddress", ""),
			MaxMessageSize:    getInt("grpc_maxMessageSize", 64*1024*1024),
			PrometheusMetrics: getBool("use_prometheus_grpc_metrics", true),
		},
		Tracing: TracingSettings{
			Enabled:    getBool("tracing_enabled", false),
			SampleRate: sampleRate,
			Collector:  getURL("tracing_collector_url", "http://localhost:4318"),
		},
	}
}
