package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorumkv/internal/engine"
	"quorumkv/internal/replication"
	"quorumkv/internal/shardserver"
)

func newShard(t *testing.T, id string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e, err := engine.Open(t.TempDir(), engine.Config{FlushIntervalMs: 50, SnapshotIntervalMs: 1_000_000}, engine.Hooks{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	rep := replication.New(id, nil, 1, 0)
	g := gin.New()
	shardserver.NewHandler(e, rep, id, 0, nil).Register(g)

	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	return srv
}

func TestScenario6RouteIsDeterministic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	shards := []string{newShard(t, "s1").URL, newShard(t, "s2").URL, newShard(t, "s3").URL}

	h := NewHandler(New(shards, 100), nil)
	g := gin.New()
	h.Register(g)
	srv := httptest.NewServer(g)
	defer srv.Close()

	first, err := http.Get(srv.URL + "/route?key=user:1")
	require.NoError(t, err)
	body1 := readBody(t, first)

	second, err := http.Get(srv.URL + "/route?key=user:1")
	require.NoError(t, err)
	body2 := readBody(t, second)

	assert.Equal(t, body1, body2)
}

func TestProxyForwardsContentTypeVerbatim(t *testing.T) {
	gin.SetMode(gin.TestMode)
	shard := newShard(t, "s1")

	h := NewHandler(New([]string{shard.URL}, 100), nil)
	g := gin.New()
	h.Register(g)
	srv := httptest.NewServer(g)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/kv?key=u2", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(shard.URL + "/kv?key=u2")
	require.NoError(t, err)
	defer getResp.Body.Close()
	body := readBody(t, getResp)
	assert.Contains(t, body, `"a":1`)
}

func TestRouteMissingKeyIs400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(New([]string{"http://example.invalid"}, 100), nil)
	g := gin.New()
	h.Register(g)
	srv := httptest.NewServer(g)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/route")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	buf := make([]byte, 4096)
	n, _ := resp.Body.Read(buf)
	return string(buf[:n])
}
