package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Makepad-fr/tada/internal/model"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tada_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "status"})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tada_todo_mutations_total",
		Help: "Todo writes by operation and result",
	}, []string{"op", "result"})
)

func countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func countMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = model.KindOf(err).String()
	}
	mutationsTotal.WithLabelValues(op, result).Inc()
}

func accessLog(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Info("handled", "method", r.Method, "url", r.URL.Path, "duration", m.Duration, "status", m.Code)
	})
}
