package shardserver

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
)

func newTestServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e, err := engine.Open(t.TempDir(), engine.Config{FlushIntervalMs: 50, SnapshotIntervalMs: 1_000_000}, engine.Hooks{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	rep := replication.New("shard-a", nil, 1, 0)

	g := gin.New()
	NewHandler(e, rep, "shard-a", 8080, nil).Register(g)

	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	return srv, e
}

func TestScenario1PutThenGetRawString(t *testing.T) {
	srv, e := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/kv?key=user:1", strings.NewReader("Alice"))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/kv?key=user:1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	rec, err := e.Get("user:1")
	require.NoError(t, err)
	assert.False(t, rec.Value.IsJSON())
	assert.Equal(t, "Alice", rec.Value.String())
}

func TestScenario2PutJSONThenGet(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"name":"Bob","age":30,"tags":["a","b"]}`
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/kv?key=u2", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/kv?key=u2")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestScenario3LastWriteWins(t *testing.T) {
	srv, e := newTestServer(t)

	for _, v := range []string{"Alice", "Bob"} {
		req, _ := http.NewRequest(http.MethodPut, srv.URL+"/kv?key=k", strings.NewReader(v))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	getResp, err := http.Get(srv.URL + "/kv?key=k")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	rec, err := e.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "Bob", rec.Value.String())
}

func TestScenario4PutThenDeleteThenGetIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/kv?key=k", strings.NewReader("x"))
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()

	delReq, _ := http.NewRequest(http.MethodDelete, srv.URL+"/kv?key=k", nil)
	delResp, err := http.DefaultClient.Do(delReq)
	require.NoError(t, err)
	delResp.Body.Close()

	getResp, err := http.Get(srv.URL + "/kv?key=k")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestGetMissingKeyParamIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/kv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownMethodOnKVIs405(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/kv?key=k", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestUnknownPathIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestForwardedPutAppliesLocallyAndSkipsReplication(t *testing.T) {
	srv, e := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/kv?key=k", strings.NewReader("v"))
	req.Header.Set(replication.ForwardedByHeader, "shard-b")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rec, err := e.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", rec.Value.String())
}

func TestHealthAndStatsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	healthResp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer healthResp.Body.Close()
	assert.Equal(t, http.StatusOK, healthResp.StatusCode)

	statsResp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	assert.Equal(t, http.StatusOK, statsResp.StatusCode)
}
