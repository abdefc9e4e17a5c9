package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/floydspace/project-mgmt-graphql-go/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// downStore reports the data store as unreachable.
type downStore struct {
	*store.Memory
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, st store.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	schema, err := generateSchema(st, zap.NewNop(), m)
	require.NoError(t, err)

	return newRouter(routerDeps{
		ServiceName:    "test-service",
		Version:        "1.0.0",
		AllowedOrigins: []string{"*"},
		Schema:         schema,
		Store:          st,
		Logger:         zap.NewNop(),
		Metrics:        m,
		Gatherer:       reg,
	})
}

func postGraphQL(t *testing.T, router http.Handler, query string, vars map[string]interface{}) gjson.Result {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	return gjson.ParseBytes(rr.Body.Bytes())
}

func TestGraphQLEndpoint_EndToEnd(t *testing.T) {
	router := newTestRouter(t, store.NewMemory())

	res := postGraphQL(t, router, addClientMutation, map[string]interface{}{
		"name": "Acme", "email": "a@acme.com", "phone": "555",
	})
	requireNoErrors(t, res)
	clientID := res.Get("data.addClient.id").String()
	require.NotEmpty(t, clientID)

	res = postGraphQL(t, router, addProjectMutation, map[string]interface{}{
		"name": "Site", "description": "Build site", "clientId": clientID,
	})
	requireNoErrors(t, res)

	res = postGraphQL(t, router, `{ projects { name client { name } } }`, nil)
	requireNoErrors(t, res)
	assert.JSONEq(t, `[{"name":"Site","client":{"name":"Acme"}}]`, res.Get("data.projects").Raw)
}

func TestGraphQLEndpoint_GET(t *testing.T) {
	router := newTestRouter(t, store.NewMemory())

	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(`{ clients { id } }`), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	res := gjson.ParseBytes(rr.Body.Bytes())
	requireNoErrors(t, res)
	assert.True(t, res.Get("data.clients").IsArray())
}

func TestGraphQLEndpoint_ValidationError(t *testing.T) {
	router := newTestRouter(t, store.NewMemory())

	res := postGraphQL(t, router, `mutation { deleteProject { id } }`, nil)
	require.True(t, res.Get("errors").Exists())
	assert.False(t, res.Get("data.deleteProject").Exists())
}

func TestIDEPage(t *testing.T) {
	router := newTestRouter(t, store.NewMemory())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, "test-service", doc.Find("title").Text())
	assert.Equal(t, "/graphql", doc.Find("#graphiql").AttrOr("data-endpoint", ""))

	var scripts []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		scripts = append(scripts, s.AttrOr("src", ""))
	})
	assert.Contains(t, strings.Join(scripts, " "), "graphiql")
}

func TestHealthCheck(t *testing.T) {
	for _, tc := range []struct {
		name   string
		store  store.Store
		dbWant string
	}{
		{"store up", store.NewMemory(), "up"},
		{"store down", downStore{store.NewMemory()}, "down"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, tc.store)

			for _, path := range []string{"/health", "/healthz"} {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, req)
				require.Equal(t, http.StatusOK, rr.Code)

				var response HealthResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
				assert.Equal(t, "healthy", response.Status)
				assert.Equal(t, "test-service", response.Service)
				assert.Equal(t, "1.0.0", response.Version)
				assert.Equal(t, tc.dbWant, response.DB)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(t, store.NewMemory())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "req-123", rr.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, store.NewMemory())
	postGraphQL(t, router, `{ clients { id } }`, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `projects_api_graphql_operations_total{operation="clients",outcome="ok"} 1`)
	assert.Contains(t, body, `projects_api_http_requests_total{method="POST",path="/graphql",status="200"} 1`)
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, store.NewMemory())

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	cfg := corsConfig([]string{"http://a.test"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"http://a.test"}, cfg.AllowOrigins)
}
