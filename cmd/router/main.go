// cmd/router is the process entrypoint for the stateless request router.
//
// Example:
//
//	./router --port 9090 \
//	          --shards http://localhost:8080,http://localhost:8081,http://localhost:8082 \
//	          --vnodes 100
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

	"quorumkv/internal/httpmw"
	"quorumkv/internal/metrics"
	"quorumkv/internal/router"
)

func main() {
	port := flag.Int("port", 9090, "listen port")
	shardsFlag := flag.String("shards", "", "comma-separated shard base URLs")
	vnodes := flag.Int("vnodes", 150, "virtual nodes per shard")
	flag.Parse()

	if *shardsFlag == "" {
		log.Fatal("--shards is required")
	}
	shards := strings.Split(*shardsFlag, ",")

	collector := metrics.NewCollector("router")

	r := router.New(shards, *vnodes)

	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(httpmw.Logger(), httpmw.Recovery())

	router.NewHandler(r, collector).Register(g)
	metrics.Register(g)

	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      g,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("router listening on %s (shards=%v, vnodes=%d)", addr, shards, *vnodes)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down router")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
