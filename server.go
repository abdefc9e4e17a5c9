package main

import (
	"strings"
	"time"

	"github.com/floydspace/project-mgmt-graphql-go/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	graphqlEndpoint = "/graphql"
	requestIDHeader = "X-Request-Id"
)

type routerDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	Schema         *graphql.Schema
	Store          store.Store
	Logger         *zap.Logger
	Metrics        *metrics
	Gatherer       prometheus.Gatherer
}

func newRouter(dep routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(dep.Logger, dep.Metrics))
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))
	r.SetHTMLTemplate(ideTemplate)

	gql := gin.WrapH(handler.New(&handler.Config{
		Schema: dep.Schema,
		Pretty: true,
	}))
	r.GET(graphqlEndpoint, gql)
	r.POST(graphqlEndpoint, gql)

	r.GET("/", serveIDE(dep.ServiceName, graphqlEndpoint))

	newHealthHandler(dep.ServiceName, dep.Version, dep.Store).registerRoutes(r)

	if dep.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(dep.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// requestLogger tags each request with an id, echoes it back and logs the outcome.
func requestLogger(logger *zap.Logger, m *metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if strings.TrimSpace(rid) == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Writer.Header().Set(requestIDHeader, rid)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		m.observeRequest(c.Request.Method, path, status, latency)

		logger.Info("request",
			zap.String("request_id", rid),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
	}
}
