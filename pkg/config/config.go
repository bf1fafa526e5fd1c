// Package config loads engine configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load populates cfg from the environment and an optional .env file.
func Load[T any](cfg *T) error {
	_ = godotenv.Load()
	return env.Parse(cfg)
}

// MustLoad is Load for main(); it panics on invalid configuration.
func MustLoad[T any](cfg *T) {
	_ = godotenv.Load()
	env.Must(cfg, env.Parse(cfg))
}

// Config holds everything the engine process needs.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	WAL       WALConfig       `envPrefix:"WAL_"`
	Outbox    OutboxConfig    `envPrefix:"OUTBOX_"`
	Snapshot  SnapshotConfig  `envPrefix:"SNAPSHOT_"`
	Broadcast BroadcastConfig `envPrefix:"BROADCAST_"`
}

// KafkaConfig covers both the inbound order feed and the outbound
// trade stream.
type KafkaConfig struct {
	Brokers    []string `env:"BROKERS" envDefault:"localhost:9092"`
	OrderTopic string   `env:"ORDER_TOPIC" envDefault:"orders"`
	TradeTopic string   `env:"TRADE_TOPIC" envDefault:"trades"`
	GroupID    string   `env:"GROUP_ID" envDefault:"matchd"`
}

// WALConfig configures the order-intent log.
type WALConfig struct {
	Dir         string `env:"DIR" envDefault:"./data/wal"`
	SegmentSize int64  `env:"SEGMENT_SIZE" envDefault:"2097152"`
}

// OutboxConfig configures the durable trade outbox.
type OutboxConfig struct {
	Dir string `env:"DIR" envDefault:"./data/outbox"`
}

// SnapshotConfig configures periodic book snapshots.
type SnapshotConfig struct {
	Dir      string        `env:"DIR" envDefault:"./data/snapshot"`
	Interval time.Duration `env:"INTERVAL" envDefault:"30s"`
}

// BroadcastConfig configures the outbox drain loop.
type BroadcastConfig struct {
	Interval time.Duration `env:"INTERVAL" envDefault:"250ms"`
}
