package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contenivelabs/renewal/internal/clock"
	"github.com/contenivelabs/renewal/internal/config"
	plandomain "github.com/contenivelabs/renewal/internal/plan/domain"
	planrepository "github.com/contenivelabs/renewal/internal/plan/repository"
	"github.com/contenivelabs/renewal/internal/queue"
	subscriptiondomain "github.com/contenivelabs/renewal/internal/subscription/domain"
	subscriptionrepository "github.com/contenivelabs/renewal/internal/subscription/repository"
)

func newSchedulerFixture(t *testing.T, now time.Time) (*Scheduler, *gorm.DB, *redis.Client, *miniredis.Miniredis, config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&plandomain.ContentPlan{}, &subscriptiondomain.Subscription{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Config{
		Scheduler: config.SchedulerConfig{
			Interval:           time.Minute,
			ExpireBatchSize:    50,
			StuckLockThreshold: 15 * time.Minute,
		},
		Queue: config.QueueConfig{
			ExpiryKey:     "renewal:expired_plans",
			DeadLetterKey: "renewal:expired_plans:dead",
			PopTimeout:    50 * time.Millisecond,
		},
	}

	sched := New(Param{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     clock.Fixed{T: now},
		Cfg:       cfg,
		PlanRepo:  planrepository.Provide(),
		SubRepo:   subscriptionrepository.Provide(),
		Publisher: queue.NewPublisher(rdb, cfg),
	})
	return sched, db, rdb, mr, cfg
}

func TestEnqueueExpiredPlans(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sched, db, rdb, _, cfg := newSchedulerFixture(t, now)
	ctx := context.Background()
	node, _ := snowflake.NewNode(1)
	planRepo := planrepository.Provide()

	past := now.Add(-time.Hour)
	lapsed := &plandomain.ContentPlan{
		ID:        node.Generate(),
		AccountID: node.Generate(),
		Status:    plandomain.PlanStatusProgress,
		ExpiresAt: &past,
		CreatedAt: past,
		UpdatedAt: past,
	}
	require.NoError(t, planRepo.Insert(ctx, db, lapsed))

	future := now.Add(time.Hour)
	active := &plandomain.ContentPlan{
		ID:        node.Generate(),
		AccountID: node.Generate(),
		Status:    plandomain.PlanStatusProgress,
		ExpiresAt: &future,
		CreatedAt: past,
		UpdatedAt: past,
	}
	require.NoError(t, planRepo.Insert(ctx, db, active))

	require.NoError(t, sched.EnqueueExpiredPlans(ctx))

	queued, err := rdb.LRange(ctx, cfg.Queue.ExpiryKey, 0, -1).Result()
	require.NoError(t, err)
	require.Equal(t, []string{lapsed.ID.String()}, queued)

	found, err := planRepo.FindByID(ctx, db, lapsed.ID)
	require.NoError(t, err)
	require.Equal(t, plandomain.PlanStatusExpired, found.Status)

	// A second sweep finds nothing; the plan already left progress.
	require.NoError(t, sched.EnqueueExpiredPlans(ctx))
	length, err := rdb.LLen(ctx, cfg.Queue.ExpiryKey).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), length)
}

func TestEnqueueFailureKeepsPlanSweepable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sched, db, rdb, mr, cfg := newSchedulerFixture(t, now)
	ctx := context.Background()
	node, _ := snowflake.NewNode(1)
	planRepo := planrepository.Provide()

	past := now.Add(-time.Hour)
	lapsed := &plandomain.ContentPlan{
		ID:        node.Generate(),
		AccountID: node.Generate(),
		Status:    plandomain.PlanStatusProgress,
		ExpiresAt: &past,
		CreatedAt: past,
		UpdatedAt: past,
	}
	require.NoError(t, planRepo.Insert(ctx, db, lapsed))

	// Sweep against a dead redis: the push fails, and the plan must
	// stay in progress so a later sweep can retry it.
	mr.Close()
	require.Error(t, sched.EnqueueExpiredPlans(ctx))

	found, err := planRepo.FindByID(ctx, db, lapsed.ID)
	require.NoError(t, err)
	require.Equal(t, plandomain.PlanStatusProgress, found.Status)

	require.NoError(t, mr.Restart())
	require.NoError(t, sched.EnqueueExpiredPlans(ctx))

	queued, err := rdb.LRange(ctx, cfg.Queue.ExpiryKey, 0, -1).Result()
	require.NoError(t, err)
	require.Equal(t, []string{lapsed.ID.String()}, queued)

	found, err = planRepo.FindByID(ctx, db, lapsed.ID)
	require.NoError(t, err)
	require.Equal(t, plandomain.PlanStatusExpired, found.Status)
}

func TestReportStuckSubscriptions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sched, db, _, _, _ := newSchedulerFixture(t, now)
	ctx := context.Background()
	node, _ := snowflake.NewNode(1)
	subRepo := subscriptionrepository.Provide()

	stuck := &subscriptiondomain.Subscription{
		ID:        node.Generate(),
		AccountID: node.Generate(),
		Status:    subscriptiondomain.SubscriptionStatusInProgress,
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
	require.NoError(t, subRepo.Insert(ctx, db, stuck))

	fresh := &subscriptiondomain.Subscription{
		ID:        node.Generate(),
		AccountID: node.Generate(),
		Status:    subscriptiondomain.SubscriptionStatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, subRepo.Insert(ctx, db, fresh))

	// Report only; no status may change.
	require.NoError(t, sched.ReportStuckSubscriptions(ctx))

	found, err := subRepo.FindByID(ctx, db, stuck.ID)
	require.NoError(t, err)
	require.Equal(t, subscriptiondomain.SubscriptionStatusInProgress, found.Status)
}
