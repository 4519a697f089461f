package queue

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/contenivelabs/renewal/internal/config"
	plandomain "github.com/contenivelabs/renewal/internal/plan/domain"
	renewaldomain "github.com/contenivelabs/renewal/internal/renewal/domain"
	subscriptiondomain "github.com/contenivelabs/renewal/internal/subscription/domain"
)

// popRetryDelay paces the loop when redis itself is failing, so an
// outage does not turn into a hot spin of warnings.
const popRetryDelay = time.Second

type Consumer struct {
	rdb     *redis.Client
	cfg     config.QueueConfig
	log     *zap.Logger
	renewal renewaldomain.Service
}

func NewConsumer(rdb *redis.Client, cfg config.Config, log *zap.Logger, renewal renewaldomain.Service) *Consumer {
	return &Consumer{
		rdb:     rdb,
		cfg:     cfg.Queue,
		log:     log.Named("queue.consumer"),
		renewal: renewal,
	}
}

// Run consumes the renewal queue until ctx is canceled. Entries left
// on the processing list by a consumer that died mid-workflow are
// returned to the queue first.
func (c *Consumer) Run(ctx context.Context) {
	c.requeueStale(ctx)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.consumeOne(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn("queue pop failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(popRetryDelay):
			}
		}
	}
}

// consumeOne moves one message to the processing list, runs the
// workflow, and only then removes it. A crash between the move and the
// removal leaves the message on the processing list for requeueStale,
// so delivery stays at-least-once; duplicates are absorbed by the
// subscription lock and the charge idempotency key.
func (c *Consumer) consumeOne(ctx context.Context) error {
	raw, err := c.rdb.BLMove(ctx, c.cfg.ExpiryKey, c.cfg.ProcessingKey, "RIGHT", "LEFT", c.cfg.PopTimeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	c.handle(ctx, raw)
	return c.rdb.LRem(ctx, c.cfg.ProcessingKey, 1, raw).Err()
}

func (c *Consumer) requeueStale(ctx context.Context) {
	for {
		raw, err := c.rdb.LMove(ctx, c.cfg.ProcessingKey, c.cfg.ExpiryKey, "RIGHT", "RIGHT").Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
				c.log.Warn("requeue of in-flight renewals failed", zap.Error(err))
			}
			return
		}
		c.log.Info("requeued in-flight renewal", zap.String("payload", raw))
	}
}

func (c *Consumer) handle(ctx context.Context, raw string) {
	planID, err := snowflake.ParseString(raw)
	if err != nil || planID == 0 {
		c.log.Error("discarding malformed renewal message", zap.String("payload", raw))
		return
	}

	err = c.renewal.Expire(ctx, planID)
	switch {
	case err == nil:
		return
	case errors.Is(err, subscriptiondomain.ErrRenewalInProgress):
		// Duplicate delivery; the holder settles the subscription.
		return
	case errors.Is(err, plandomain.ErrPlanNotFound):
		c.log.Error("renewal message references unknown plan", zap.String("plan_id", raw))
		return
	default:
		c.deadLetter(ctx, raw, err)
	}
}

func (c *Consumer) deadLetter(ctx context.Context, raw string, cause error) {
	c.log.Error("renewal moved to dead letter",
		zap.String("plan_id", raw),
		zap.Error(cause),
	)
	if err := c.rdb.LPush(ctx, c.cfg.DeadLetterKey, raw).Err(); err != nil {
		c.log.Error("dead letter push failed", zap.String("plan_id", raw), zap.Error(err))
	}
}
