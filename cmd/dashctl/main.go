package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xela07ax/dashboard-live-prototype/internal/broadcast"
	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
)

// dashctl - операторская утилита: шлет сигналы всем процессам дашборда
// и показывает последний снимок здоровья вьюхи из Redis.
//
//	dashctl -signal feed:off
//	dashctl -health <view-id>
func main() {
	addr := flag.String("redis", "localhost:6379", "Redis address")
	password := flag.String("redis-pass", "", "Redis password")
	db := flag.Int("redis-db", 0, "Redis database")
	signal := flag.String("signal", "", "Control signal: feed:on|off, health:on|off")
	scope := flag.String("health", "", "Print latest health snapshot for view id")
	timeout := flag.Duration("timeout", 5*time.Second, "Redis call timeout")
	flag.Parse()

	if *signal == "" && *scope == "" {
		flag.Usage()
		os.Exit(2)
	}

	rdb := redis.NewClient(&redis.Options{Addr: *addr, Password: *password, DB: *db})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *signal != "" {
		sig, err := domain.ParseControlSignal(*signal)
		if err != nil {
			log.Fatalf("invalid signal: %v", err)
		}
		n, err := broadcast.SendSignal(ctx, rdb, sig)
		if err != nil {
			log.Fatalf("send signal: %v", err)
		}
		fmt.Printf("signal %s delivered to %d subscriber(s)\n", sig, n)
	}

	if *scope != "" {
		msg, err := broadcast.LatestHealth(ctx, rdb, *scope)
		if err != nil {
			log.Fatalf("latest health: %v", err)
		}
		warnings, errs := domain.CountStatuses(*msg.Health)
		fmt.Printf("view %s at %s: overall=%s warnings=%d errors=%d\n",
			msg.Scope, msg.Timestamp.Format(time.RFC3339), msg.Health.Overall(), warnings, errs)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(msg.Health); err != nil {
			log.Fatalf("encode: %v", err)
		}
	}
}
