package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/commonsdao/liquidvote/src/api/config"
	"github.com/commonsdao/liquidvote/src/api/data"
	"github.com/commonsdao/liquidvote/src/api/webserver"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var cooldowns data.Cooldowns
	if cfg.RedisURL != "" {
		cooldowns = data.NewRedisCooldowns(data.MustRedis(cfg.RedisURL))
	} else {
		log.Printf("REDIS_URL not set, using in-process cooldowns")
		cooldowns = data.NewMemoryCooldowns(data.CooldownWindow)
	}

	router := webserver.New(cfg, db, cooldowns)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("liquidvote API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutCtx)
}
