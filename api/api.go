package api

import (
	"context"
	"fmt"
	"stockval/internal/logger"
	"stockval/internal/service"
	"stockval/internal/universe"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApiHandler struct {
	ValuationService service.ValuationService
	Universe         universe.Universe
}

func (m ApiHandler) StartApi(port int) error {
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(requestContextMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to stockval"})
	})
	router.POST("/valuation", m.valuation)
	router.GET("/universe", m.listUniverse)

	return router.Run(fmt.Sprintf(":%d", port))
}

func returnErrorJson(err error, c *gin.Context) {
	logger.FromContext(c.Request.Context()).Error(err.Error())
	c.AbortWithStatusJSON(500, gin.H{
		"error": err.Error(),
	})
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	logger.FromContext(c.Request.Context()).Error(err.Error())
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

// requestContextMiddleware tags each request with an id and a scoped logger,
// and logs timing on the way out.
func requestContextMiddleware(c *gin.Context) {
	requestId := uuid.New()
	log := logger.New().With(
		"requestId", requestId.String(),
		"method", c.Request.Method,
		"route", c.Request.URL.Path,
	)

	ctx := context.WithValue(c.Request.Context(), logger.ContextKey, log)
	c.Request = c.Request.WithContext(ctx)
	c.Set("requestID", requestId.String())

	start := time.Now().UTC()
	c.Next()

	log.Infow("request completed",
		"status", c.Writer.Status(),
		"durationMs", time.Since(start).Milliseconds(),
	)
}
