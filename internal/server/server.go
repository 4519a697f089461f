package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/contenivelabs/renewal/internal/config"
	"github.com/contenivelabs/renewal/internal/queue"
)

type Server struct {
	log       *zap.Logger
	db        *gorm.DB
	rdb       *redis.Client
	publisher *queue.Publisher
	registry  *prometheus.Registry
}

type Param struct {
	fx.In

	Log       *zap.Logger
	DB        *gorm.DB
	RDB       *redis.Client
	Publisher *queue.Publisher
	Registry  *prometheus.Registry
}

func New(p Param) *Server {
	return &Server{
		log:       p.Log.Named("server"),
		db:        p.DB,
		rdb:       p.RDB,
		publisher: p.Publisher,
		registry:  p.Registry,
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/readyz", s.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/plans/:id/expire", s.ExpirePlan)

	return r
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(Start),
)

func Start(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: s.Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
