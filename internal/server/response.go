package server

import (
	"github.com/gin-gonic/gin"
)

type DataResponse struct {
	Data any `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, DataResponse{Data: data})
}

func abortWithError(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code})
}
