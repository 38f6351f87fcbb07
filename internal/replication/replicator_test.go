package replication

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peerServer(t *testing.T, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "shard-primary", r.Header.Get(ForwardedByHeader))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReplicateReachesQuorumWithTwoOfThreeShards(t *testing.T) {
	var hitsA, hitsB int32
	peerA := peerServer(t, http.StatusOK, &hitsA)
	peerB := peerServer(t, http.StatusOK, &hitsB)

	r := New("shard-primary", []string{peerA.URL, peerB.URL}, 2, time.Second)

	applied := false
	result, err := r.Replicate(context.Background(), "PUT", "k", []byte("v"), "text/plain", func() error {
		applied = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, result.Ok)
	assert.GreaterOrEqual(t, result.Acks, 2)
}

func TestReplicateImpossibleQuorumReturnsNotOkWithoutRollback(t *testing.T) {
	var hitsA, hitsB int32
	peerA := peerServer(t, http.StatusInternalServerError, &hitsA)
	peerB := peerServer(t, http.StatusInternalServerError, &hitsB)

	r := New("shard-primary", []string{peerA.URL, peerB.URL}, 3, time.Second)

	applied := false
	result, err := r.Replicate(context.Background(), "PUT", "k", []byte("v"), "text/plain", func() error {
		applied = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, applied, "local apply must not be rolled back on failed quorum")
	assert.False(t, result.Ok)
	assert.Equal(t, 1, result.Acks)
}

func TestReplicateWithNoPeersSatisfiesQuorumOfOne(t *testing.T) {
	r := New("shard-primary", nil, 1, time.Second)

	result, err := r.Replicate(context.Background(), "PUT", "k", []byte("v"), "text/plain", func() error {
		return nil
	})

	require.NoError(t, err)
	assert.True(t, result.Ok)
	assert.Equal(t, 1, result.Acks)
}

func TestReplicateLocalApplyFailureAbortsBeforeForwarding(t *testing.T) {
	var hits int32
	peer := peerServer(t, http.StatusOK, &hits)

	r := New("shard-primary", []string{peer.URL}, 2, time.Second)

	_, err := r.Replicate(context.Background(), "PUT", "k", []byte("v"), "text/plain", func() error {
		return assert.AnError
	})

	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&hits))
}
