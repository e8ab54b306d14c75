package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/quantfold/pead-engine/internal/types"
)

// RedisEventBus carries the engine's inputs and outputs over Redis
// Streams: daily bar snapshots in, order events out.
type RedisEventBus struct {
	client *redis.Client
}

func NewRedisEventBus(host string, port int) (*RedisEventBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", host, port),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("addr", fmt.Sprintf("%s:%d", host, port)).Msg("Connected to Redis")

	return &RedisEventBus{client: client}, nil
}

// Subscribe reads market-day snapshots from stream and feeds them to
// handler, one at a time, preserving stream order. It blocks until ctx
// is cancelled.
func (b *RedisEventBus) Subscribe(ctx context.Context, stream string, handler func(types.MarketDay) error) error {
	log.Info().Str("stream", stream).Msg("Subscribing to bar stream")

	lastID := "$"
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			result, err := b.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Block:   5 * time.Second,
				Count:   1,
			}).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error().Err(err).Msg("Failed to read from stream")
				time.Sleep(time.Second)
				continue
			}

			for _, str := range result {
				for _, message := range str.Messages {
					lastID = message.ID

					day, err := b.parseMarketDay(message)
					if err != nil {
						log.Error().Err(err).Str("id", message.ID).Msg("Failed to parse market day")
						continue
					}

					if err := handler(day); err != nil {
						log.Error().Err(err).Str("date", day.Date.Format("2006-01-02")).Msg("Failed to handle market day")
					}
				}
			}
		}
	}
}

// Publish appends an order event to stream.
func (b *RedisEventBus) Publish(ctx context.Context, stream string, event types.OrderEvent) error {
	values := map[string]interface{}{
		"id":        event.ID,
		"type":      event.Type,
		"symbol":    event.Symbol,
		"weight":    event.Weight,
		"date":      event.Date.Format("2006-01-02"),
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}

	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	log.Debug().
		Str("stream", stream).
		Str("type", event.Type).
		Str("symbol", event.Symbol).
		Msg("Published order event")

	return nil
}

func (b *RedisEventBus) parseMarketDay(msg redis.XMessage) (types.MarketDay, error) {
	dateStr, ok := msg.Values["date"].(string)
	if !ok {
		return types.MarketDay{}, fmt.Errorf("missing date field")
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		return types.MarketDay{}, fmt.Errorf("unparseable date %q: %w", dateStr, err)
	}

	day := types.MarketDay{Date: date}

	if barsStr, ok := msg.Values["bars"].(string); ok {
		if err := json.Unmarshal([]byte(barsStr), &day.Bars); err != nil {
			return types.MarketDay{}, fmt.Errorf("unparseable bars: %w", err)
		}
	}

	return day, nil
}

func (b *RedisEventBus) Close() error {
	return b.client.Close()
}
