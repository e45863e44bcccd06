package events

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

const (
	// StreamName is the JetStream stream holding notification events.
	StreamName = "NOTIFICATIONS"

	// SubjectPrefix is the subject namespace for notification events.
	// Events are published to notifications.<category>.
	SubjectPrefix = "notifications"
)

// Subject returns the publish subject for a notification category.
func Subject(category string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, category)
}

// Broker runs an embedded NATS server with JetStream enabled and holds
// the client connection the rest of the process uses.
type Broker struct {
	server *server.Server
	nc     *nats.Conn
	js     jetstream.JetStream
	logger zerolog.Logger
}

// NewEmbeddedBroker starts an in-process NATS server storing stream data
// under dataDir and provisions the notification stream.
func NewEmbeddedBroker(dataDir string, logger zerolog.Logger) (*Broker, error) {
	opts := &server.Options{
		JetStream: true,
		StoreDir:  filepath.Join(dataDir, "nats-store"),
		Port:      -1, // random port, internal use only
		HTTPPort:  -1,
	}

	if err := os.MkdirAll(opts.StoreDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create nats server: %w", err)
	}

	ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		return nil, fmt.Errorf("nats server did not become ready")
	}

	logger.Info().Str("client_url", ns.ClientURL()).Msg("embedded nats server started")

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	b := &Broker{
		server: ns,
		nc:     nc,
		js:     js,
		logger: logger,
	}

	if err := b.createStreams(); err != nil {
		b.Shutdown()
		return nil, err
	}

	return b, nil
}

func (b *Broker) createStreams() error {
	cfg := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "User notification events pending delivery",
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		MaxMsgs:     1000000,
	}

	if _, err := b.js.CreateOrUpdateStream(context.Background(), cfg); err != nil {
		return fmt.Errorf("failed to create notification stream: %w", err)
	}
	b.logger.Info().Str("stream", StreamName).Msg("notification stream ready")

	return nil
}

// JetStream exposes the JetStream context for publishers and consumers.
func (b *Broker) JetStream() jetstream.JetStream {
	return b.js
}

// Connection exposes the underlying NATS connection.
func (b *Broker) Connection() *nats.Conn {
	return b.nc
}

// Shutdown closes the client connection and stops the embedded server.
func (b *Broker) Shutdown() {
	if b.nc != nil {
		b.nc.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
		b.server.WaitForShutdown()
	}
	b.logger.Info().Msg("embedded nats server stopped")
}
