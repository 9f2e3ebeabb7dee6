package events

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"aicruiter/internal/apperr"
	"aicruiter/internal/telemetry"
)

const connectTimeout = 10 * time.Second

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNATSPublisher(natsURL string, logger *zap.Logger) (Publisher, error) {
	opts := []nats.Option{
		nats.Name("aicruiter"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, apperr.Internal("connecting to NATS", err)
	}
	return &natsPublisher{conn: conn, logger: logger}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, event Event) error {
	_, span := tracer.Start(ctx, "NATSPublisher.Publish")
	defer span.End()

	data, err := marshal(event)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		telemetry.String("nats.subject", Channel),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(Channel, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish session event",
			zap.String("type", event.Type),
			zap.Error(err))
		return apperr.Internal("publishing to NATS", err)
	}
	return nil
}

func (p *natsPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
