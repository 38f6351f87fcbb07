// Package replication fans a shard's writes out to its peer shards and
// waits for a quorum of acknowledgements before returning.
//
// There is no read quorum and no read repair here — reads are served
// directly by whichever shard the router selected, per the store's
// replication model. This package only exists to keep a configured number
// of replicas in sync on writes, best-effort, with no retry: a peer that
// fails to apply a forwarded write is simply not counted toward quorum.
package replication

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// ForwardedByHeader marks a request as already replicated, so the
// receiving shard applies it locally instead of forwarding it again.
const ForwardedByHeader = "X-Forwarded-By"

// Result describes the outcome of a Replicate call.
type Result struct {
	Acks   int
	Quorum int
	Ok     bool
}

// Replicator forwards a write to a fixed set of peer shards over HTTP.
type Replicator struct {
	selfID     string
	peers      []string // base URLs of peer shards, excluding self
	quorum     int
	httpClient *http.Client
}

// New constructs a Replicator. quorum counts the local apply as one ack, so
// a quorum of 1 never contacts any peer.
func New(selfID string, peers []string, quorum int, timeout time.Duration) *Replicator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if quorum < 1 {
		quorum = 1
	}
	return &Replicator{
		selfID:     selfID,
		peers:      peers,
		quorum:     quorum,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Replicate applies the write locally via localApply, then fans the same
// op/key/body out to every peer concurrently. It returns as soon as quorum
// is reached, cancelling any forwards still in flight, but always waits for
// every forward goroutine to observe that cancellation and exit before
// returning — there is no unbounded background work left running.
func (r *Replicator) Replicate(ctx context.Context, op, key string, body []byte, contentType string, localApply func() error) (Result, error) {
	if err := localApply(); err != nil {
		return Result{}, fmt.Errorf("local apply: %w", err)
	}

	acks := 1
	if acks >= r.quorum || len(r.peers) == 0 {
		return Result{Acks: acks, Quorum: r.quorum, Ok: acks >= r.quorum}, nil
	}

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type ackResult struct {
		ok bool
	}
	results := make(chan ackResult, len(r.peers))

	for _, peer := range r.peers {
		go func(p string) {
			err := r.forward(fctx, p, op, key, body, contentType)
			results <- ackResult{ok: err == nil}
		}(peer)
	}

	settled := 0
	for settled < len(r.peers) {
		res := <-results
		settled++
		if res.ok {
			acks++
			if acks >= r.quorum {
				cancel() // quorum met; tell any remaining forwards to abandon
			}
		}
	}

	return Result{Acks: acks, Quorum: r.quorum, Ok: acks >= r.quorum}, nil
}

// forward sends op/key/body to a single peer shard's /kv endpoint, marked
// with ForwardedByHeader so the peer applies it locally without
// re-forwarding. A cancelled context simply aborts the send, and the
// aborted forward is counted as a failed ack.
func (r *Replicator) forward(ctx context.Context, peerBaseURL, op, key string, body []byte, contentType string) error {
	u, err := buildKVURL(peerBaseURL, key)
	if err != nil {
		return err
	}

	method := http.MethodPut
	if op == "DELETE" {
		method = http.MethodDelete
		body = nil
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set(ForwardedByHeader, r.selfID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("peer %s returned HTTP %d", peerBaseURL, resp.StatusCode)
	}
	return nil
}
