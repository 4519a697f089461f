package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contenivelabs/renewal/internal/config"
	"github.com/contenivelabs/renewal/internal/queue"
)

func newServerFixture(t *testing.T) (*gin.Engine, *redis.Client, config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Config{
		Queue: config.QueueConfig{
			ExpiryKey:     "renewal:expired_plans",
			ProcessingKey: "renewal:expired_plans:processing",
			DeadLetterKey: "renewal:expired_plans:dead",
		},
	}

	srv := New(Param{
		Log:       zap.NewNop(),
		DB:        db,
		RDB:       rdb,
		Publisher: queue.NewPublisher(rdb, cfg),
		Registry:  prometheus.NewRegistry(),
	})
	return srv.Router(), rdb, cfg
}

func TestExpirePlanAccepted(t *testing.T) {
	router, rdb, cfg := newServerFixture(t)
	node, _ := snowflake.NewNode(1)
	planID := node.Generate()

	req := httptest.NewRequest(http.MethodPost, "/v1/plans/"+planID.String()+"/expire", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusAccepted, resp.Code)

	var body DataResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	queued, err := rdb.LRange(context.Background(), cfg.Queue.ExpiryKey, 0, -1).Result()
	require.NoError(t, err)
	require.Equal(t, []string{planID.String()}, queued)
}

func TestExpirePlanInvalidID(t *testing.T) {
	router, rdb, cfg := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/plans/not-a-plan/expire", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "invalid_plan_id", body.Error)

	length, err := rdb.LLen(context.Background(), cfg.Queue.ExpiryKey).Result()
	require.NoError(t, err)
	require.Zero(t, length)
}

func TestReadiness(t *testing.T) {
	router, _, _ := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}
