package queue

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"

	"github.com/contenivelabs/renewal/internal/config"
)

// Publisher pushes expired-plan ids onto the renewal queue. Delivery is
// at-least-once; the subscription lock is the guard against duplicates.
type Publisher struct {
	rdb *redis.Client
	cfg config.QueueConfig
}

func NewPublisher(rdb *redis.Client, cfg config.Config) *Publisher {
	return &Publisher{rdb: rdb, cfg: cfg.Queue}
}

func (p *Publisher) Enqueue(ctx context.Context, planID snowflake.ID) error {
	return p.rdb.LPush(ctx, p.cfg.ExpiryKey, planID.String()).Err()
}
