package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/changefeed"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConsumerConfig holds configuration for the JetStream consumer
type JetStreamConsumerConfig struct {
	URL               string
	StreamName        string
	SubjectPrefix     string
	ConsumerName      string
	MaxDeliver        int           // Max delivery attempts
	AckWait           time.Duration // How long to wait for ack
	MaxAckPending     int           // Max messages pending ack
	InactiveThreshold time.Duration // How long an idle consumer survives without this gateway
	MaxReconnects     int
	ReconnectWait     time.Duration
}

// DefaultJetStreamConsumerConfig returns default JetStream consumer configuration
func DefaultJetStreamConsumerConfig() JetStreamConsumerConfig {
	return JetStreamConsumerConfig{
		URL:               nats.DefaultURL,
		StreamName:        "POKER_CHANGES",
		SubjectPrefix:     "poker.changes",
		ConsumerName:      "poker-gateway",
		MaxDeliver:        5,
		AckWait:           30 * time.Second,
		MaxAckPending:     100,
		InactiveThreshold: time.Hour,
		MaxReconnects:     -1, // Infinite
		ReconnectWait:     2 * time.Second,
	}
}

// ChangeBroadcaster receives change events decoded from the stream
type ChangeBroadcaster interface {
	BroadcastChange(event events.ChangeEvent)
}

// EventConsumer consumes change events from JetStream and broadcasts them to WebSocket clients
type EventConsumer struct {
	broadcaster ChangeBroadcaster
	nc          *nats.Conn
	js          jetstream.JetStream
	consumer    jetstream.Consumer
	config      JetStreamConsumerConfig
}

// NewEventConsumer creates a new JetStream event consumer
func NewEventConsumer(broadcaster ChangeBroadcaster, config JetStreamConsumerConfig) (*EventConsumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ec := &EventConsumer{
		broadcaster: broadcaster,
		nc:          nc,
		js:          js,
		config:      config,
	}

	if err := ec.ensureConsumer(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}

	return ec, nil
}

// ensureConsumer creates the stream when the change feed has not yet done so, then the consumer
func (ec *EventConsumer) ensureConsumer(ctx context.Context) error {
	streamCfg := changefeed.DefaultJetStreamConfig()
	streamCfg.StreamName = ec.config.StreamName
	streamCfg.SubjectPrefix = ec.config.SubjectPrefix

	stream, err := ec.js.Stream(ctx, ec.config.StreamName)
	if err != nil {
		stream, err = ec.js.CreateStream(ctx, changefeed.StreamConfig(streamCfg))
		if err != nil {
			return fmt.Errorf("get stream: %w", err)
		}
	}

	// Clients reload on subscribe, so only changes from now on are of interest
	consumerConfig := jetstream.ConsumerConfig{
		Name:              ec.config.ConsumerName,
		Durable:           ec.config.ConsumerName,
		Description:       "Planning poker gateway WebSocket consumer",
		FilterSubject:     fmt.Sprintf("%s.>", ec.config.SubjectPrefix),
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		AckPolicy:         jetstream.AckExplicitPolicy,
		MaxDeliver:        ec.config.MaxDeliver,
		AckWait:           ec.config.AckWait,
		MaxAckPending:     ec.config.MaxAckPending,
		InactiveThreshold: ec.config.InactiveThreshold,
		ReplayPolicy:      jetstream.ReplayInstantPolicy,
	}

	consumer, err := stream.Consumer(ctx, ec.config.ConsumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, consumerConfig)
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().
			Str("consumer", ec.config.ConsumerName).
			Str("stream", ec.config.StreamName).
			Msg("created JetStream consumer")
	} else {
		log.Info().
			Str("consumer", ec.config.ConsumerName).
			Str("stream", ec.config.StreamName).
			Msg("using existing JetStream consumer")
	}

	ec.consumer = consumer
	return nil
}

// Start begins consuming events from JetStream
func (ec *EventConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", ec.config.ConsumerName).
		Str("stream", ec.config.StreamName).
		Msg("starting JetStream event consumer")

	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := ec.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	// One goroutine keeps per-session delivery in stream order
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			ec.handleMessage(msg)
		}
	}
}

// handleMessage broadcasts one stream message. Undecodable messages are
// terminated since redelivery can never make them valid.
func (ec *EventConsumer) handleMessage(msg jetstream.Msg) {
	event, err := decodeChange(msg.Data())
	if err != nil {
		log.Error().
			Err(err).
			Str("subject", msg.Subject()).
			Msg("failed to decode change event")
		if termErr := msg.Term(); termErr != nil {
			log.Error().Err(termErr).Msg("failed to TERM message")
		}
		return
	}

	ec.broadcaster.BroadcastChange(event)

	log.Debug().
		Str("event_id", event.ID.String()).
		Str("session_id", event.SessionID.String()).
		Str("table", event.Table).
		Str("event_type", string(event.EventType)).
		Msg("change broadcasted to WebSocket clients")

	if ackErr := msg.Ack(); ackErr != nil {
		log.Error().Err(ackErr).Msg("failed to ACK message")
	}
}

func decodeChange(data []byte) (events.ChangeEvent, error) {
	var event events.ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("unmarshal change event: %w", err)
	}
	if event.SessionID == uuid.Nil {
		return event, fmt.Errorf("change event %s has no session id", event.ID)
	}
	return event, nil
}

// Stop gracefully shuts down the event consumer
func (ec *EventConsumer) Stop() error {
	log.Info().Msg("stopping event consumer")

	if ec.nc != nil {
		ec.nc.Close()
	}

	return nil
}
