package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "database_unavailable")
		return
	}

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "redis_unavailable")
		return
	}

	respondData(c, http.StatusOK, gin.H{"status": "ready"})
}
