package events

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"aicruiter/internal/apperr"
	"aicruiter/internal/telemetry"
)

type redisPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisPublisher(addr string, logger *zap.Logger) Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &redisPublisher{rdb: rdb, logger: logger}
}

func (p *redisPublisher) Publish(ctx context.Context, event Event) error {
	ctx, span := tracer.Start(ctx, "RedisPublisher.Publish")
	defer span.End()

	data, err := marshal(event)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(
		telemetry.String("redis.channel", Channel),
		telemetry.String("event.type", event.Type),
	)

	if err := p.rdb.Publish(ctx, Channel, data).Err(); err != nil {
		span.RecordError(err)
		return apperr.Internal("publishing to redis", err)
	}

	p.logger.Debug("published session event",
		zap.String("type", event.Type),
		zap.String("posting_id", event.PostingID))
	return nil
}

func (p *redisPublisher) Close() error {
	return p.rdb.Close()
}
