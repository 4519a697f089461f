package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type expirePlanResponse struct {
	PlanID string `json:"plan_id"`
}

// ExpirePlan enqueues a renewal event for the plan. The queue consumer
// does the actual work; duplicate submissions are harmless because the
// subscription lock rejects overlap.
func (s *Server) ExpirePlan(c *gin.Context) {
	planID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || planID == 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_plan_id")
		return
	}

	if err := s.publisher.Enqueue(c.Request.Context(), planID); err != nil {
		s.log.Error("enqueue renewal failed", zap.String("plan_id", planID.String()), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "enqueue_failed")
		return
	}

	respondData(c, http.StatusAccepted, expirePlanResponse{PlanID: planID.String()})
}
