package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/youruser/civiccert/internal/metrics"
)

// RegisterRoutes mounts the API and, when gatherer is set, /metrics.
func RegisterRoutes(r *gin.Engine, s *Server, httpMetrics *metrics.HTTPMetrics, gatherer prometheus.Gatherer) {
	r.Use(requestLogger(s.log), metrics.GinMiddleware(httpMetrics))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/qr", s.qrHandler)
		api.GET("/leaders", s.leadersHandler)
		api.POST("/certificate", s.certificateHandler)
	}
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= 500 {
			log.Error("request failed", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
