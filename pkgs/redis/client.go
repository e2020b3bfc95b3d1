package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Options configures NewClient.
type Options struct {
	Host     string
	Port     string
	DB       int
	Password string
	Timeout  time.Duration
}

// NewClient connects to Redis and verifies the connection with a PING.
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	addr := fmt.Sprintf("%s:%s", opts.Host, opts.Port)

	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	log.WithFields(log.Fields{"addr": addr, "db": opts.DB}).Info("Connected to Redis")
	return client, nil
}
