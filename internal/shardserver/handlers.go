// Package shardserver wires a shard's storage engine and replicator to its
// HTTP surface: /health, /stats, and /kv (GET/PUT/DELETE).
package shardserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"quorumkv/internal/engine"
	"quorumkv/internal/metrics"
	"quorumkv/internal/replication"
)

// Handler holds the dependencies a shard process injects at startup.
type Handler struct {
	engine     *engine.Engine
	replicator *replication.Replicator
	shardID    string
	port       int
	metrics    *metrics.Collector
}

// NewHandler constructs a Handler. metrics may be nil, in which case
// metrics recording is a no-op.
func NewHandler(e *engine.Engine, r *replication.Replicator, shardID string, port int, m *metrics.Collector) *Handler {
	return &Handler{engine: e, replicator: r, shardID: shardID, port: port, metrics: m}
}

// Register mounts every route on g, including the 404/405 fallbacks. It
// turns on g.HandleMethodNotAllowed itself so that the 405 case takes
// effect.
func (h *Handler) Register(g *gin.Engine) {
	g.HandleMethodNotAllowed = true

	g.GET("/health", h.Health)
	g.GET("/stats", h.Stats)

	g.GET("/kv", h.Get)
	g.PUT("/kv", h.Put)
	g.DELETE("/kv", h.Delete)

	g.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
	g.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"shard":  h.shardID,
		"port":   h.port,
	})
}

// Stats handles GET /stats.
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"shard": h.shardID,
		"keys":  len(h.engine.Keys()),
	})
}

// Get handles GET /kv?key=K.
func (h *Handler) Get(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordGet()
	}

	rec, err := h.engine.Get(key)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordNotFound()
		}
		c.JSON(http.StatusNotFound, gin.H{"found": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"found": true,
		"value": rec.Value,
		"ts":    rec.Ts,
	})
}

// Put handles PUT /kv?key=K. A request carrying the forwarding marker is a
// replicated write: it is applied locally only, and always replies with
// acks=1, quorum=1.
func (h *Handler) Put(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contentType := c.ContentType()

	val, err := decodeValue(body, contentType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPut()
	}

	apply := func() error {
		_, err := h.engine.Put(key, val)
		return err
	}

	if forwardedBy := c.GetHeader(replication.ForwardedByHeader); forwardedBy != "" {
		if err := apply(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "acks": 1, "quorum": 1})
		return
	}

	result, err := h.replicator.Replicate(c.Request.Context(), "PUT", key, body, contentType, apply)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveReplicaAcks(result.Acks)
	}

	// ok=false (quorum not met) is still a 200: it is a valid reply body,
	// not a transport error, and the local apply already happened.
	c.JSON(http.StatusOK, gin.H{"ok": result.Ok, "acks": result.Acks, "quorum": result.Quorum})
}

// Delete handles DELETE /kv?key=K.
func (h *Handler) Delete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing key"})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordDelete()
	}

	apply := func() error {
		err := h.engine.Delete(key)
		if err == engine.ErrKeyNotFound {
			if h.metrics != nil {
				h.metrics.RecordNotFound()
			}
			return nil // deleting an absent key is not a replication failure
		}
		return err
	}

	if forwardedBy := c.GetHeader(replication.ForwardedByHeader); forwardedBy != "" {
		if err := apply(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "acks": 1, "quorum": 1})
		return
	}

	result, err := h.replicator.Replicate(c.Request.Context(), "DELETE", key, nil, "", apply)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveReplicaAcks(result.Acks)
	}

	c.JSON(http.StatusOK, gin.H{"ok": result.Ok, "acks": result.Acks, "quorum": result.Quorum})
}

// decodeValue parses body per spec.md §6: application/json stores the
// parsed JSON document (an object or array only — a bare JSON scalar is
// kept as a raw string, same as engine.Value's own round-trip rule);
// anything else stores body as a raw string.
func decodeValue(body []byte, contentType string) (engine.Value, error) {
	if contentType != "application/json" {
		return engine.NewStringValue(string(body)), nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return engine.Value{}, err
	}

	switch parsed.(type) {
	case map[string]any, []any:
		val, _ := engine.NewJSONValue(parsed)
		return val, nil
	default:
		return engine.NewStringValue(string(body)), nil
	}
}
