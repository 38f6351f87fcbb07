package router

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"quorumkv/internal/metrics"
)

// Handler binds a Router to the router process's Gin HTTP surface.
type Handler struct {
	router     *Router
	httpClient *http.Client
	metrics    *metrics.Collector
}

// NewHandler constructs a Handler. metrics may be nil.
func NewHandler(r *Router, m *metrics.Collector) *Handler {
	return &Handler{
		router:     r,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    m,
	}
}

// Register mounts every route on g.
func (h *Handler) Register(g *gin.Engine) {
	g.GET("/health", h.Health)
	g.GET("/route", h.Route)

	g.GET("/kv", h.Proxy)
	g.PUT("/kv", h.Proxy)
	g.DELETE("/kv", h.Proxy)

	g.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"shards": h.router.Shards(),
		"vnodes": h.router.Vnodes(),
	})
}

// Route handles GET /route?key=K — returns the picked shard without
// forwarding the request.
func (h *Handler) Route(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRoute()
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "shard": h.router.Pick(key)})
}

// Proxy forwards GET/PUT/DELETE /kv?key=K verbatim to the picked shard and
// passes the shard's status and body straight back to the client. Per the
// fix to the router's original content-type bug, the client's Content-Type
// header is forwarded unchanged rather than overwritten.
func (h *Handler) Proxy(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}

	shard := h.router.Pick(key)
	if shard == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no shards configured"})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRoute()
	}

	target, err := buildKVURL(shard, key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ct := c.GetHeader("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
}

// buildKVURL constructs "<shardBaseURL>/kv?key=<key>" with key properly
// escaped via net/url rather than raw string concatenation.
func buildKVURL(shardBaseURL, key string) (string, error) {
	u, err := url.Parse(shardBaseURL)
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		u.Path = "/kv"
	} else if u.Path[len(u.Path)-1] == '/' {
		u.Path += "kv"
	} else {
		u.Path += "/kv"
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
