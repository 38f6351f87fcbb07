// cmd/shard is the process entrypoint for a single storage shard.
//
// Example — three-shard cluster, shard 1:
//
//	./shard --id shard-1 --port 8080 --data /var/quorumkv/shard-1 \
//	        --replicas http://localhost:8081,http://localhost:8082 --quorum 2
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"quorumkv/internal/engine"
	"quorumkv/internal/httpmw"
	"quorumkv/internal/metrics"
	"quorumkv/internal/replication"
	"quorumkv/internal/shardserver"
)

func main() {
	id := flag.String("id", "shard-1", "shard identifier, also used as the forwarding marker")
	port := flag.Int("port", 8080, "listen port")
	dataDir := flag.String("data", "/tmp/quorumkv", "directory for the WAL and snapshot")
	replicasFlag := flag.String("replicas", "", "comma-separated peer shard base URLs")
	quorum := flag.Int("quorum", 1, "required ack count including this shard")
	flag.Parse()

	var replicas []string
	if *replicasFlag != "" {
		replicas = strings.Split(*replicasFlag, ",")
	}

	collector := metrics.NewCollector("shard")

	e, err := engine.Open(*dataDir, engine.Config{}, engine.Hooks{
		OnFlush:    collector.RecordFlush,
		OnSnapshot: collector.RecordSnapshot,
	})
	if err != nil {
		log.Fatalf("open engine: %v", err)
	}
	defer e.Close()

	rep := replication.New(*id, replicas, *quorum, 3*time.Second)

	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(httpmw.Logger(), httpmw.Recovery())

	shardserver.NewHandler(e, rep, *id, *port, collector).Register(g)
	metrics.Register(g)

	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      g,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("shard %s listening on %s (quorum=%d, replicas=%v)", *id, addr, *quorum, replicas)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("shutting down shard %s", *id)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Snapshot(); err != nil {
		log.Printf("final snapshot error: %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
