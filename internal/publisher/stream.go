package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// StreamPublisher publishes detection outputs to Redis Streams for the
// reporting and notification services downstream.
type StreamPublisher struct {
	client *redis.Client
}

// NewStreamPublisher creates a new stream publisher.
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{client: client}
}

// PublishEdge publishes an edge to the sport stream and the global
// edges.detected stream.
func (p *StreamPublisher) PublishEdge(ctx context.Context, edge models.Edge) error {
	payload, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("marshal edge: %w", err)
	}

	streams := []string{
		fmt.Sprintf("edges.detected.%s", edge.SportKey),
		"edges.detected",
	}

	for _, stream := range streams {
		_, err = p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{
				"edge": string(payload),
			},
		}).Result()
		if err != nil {
			return fmt.Errorf("publish edge to %s: %w", stream, err)
		}
	}

	return nil
}

// PublishStake publishes a stake recommendation.
func (p *StreamPublisher) PublishStake(ctx context.Context, stake models.StakeRecommendation) error {
	payload, err := json.Marshal(stake)
	if err != nil {
		return fmt.Errorf("marshal stake recommendation: %w", err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stakes.recommended",
		Values: map[string]interface{}{
			"stake": string(payload),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish stake recommendation: %w", err)
	}

	return nil
}

// PublishCLV publishes a closing line value record.
func (p *StreamPublisher) PublishCLV(ctx context.Context, record models.CLVRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal clv record: %w", err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: "clv.recorded",
		Values: map[string]interface{}{
			"clv": string(payload),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish clv record: %w", err)
	}

	return nil
}
