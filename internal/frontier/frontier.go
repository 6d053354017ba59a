// Package frontier tracks crawl state in Redis: which URLs have been
// fetched and when a domain was last hit.
package frontier

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	seenKey         = "crawl:seen"
	domainKeyFmt    = "crawl:domain:%s"
	defaultCooldown = 10 * time.Second
)

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Cooldown is the minimum interval between fetches to one domain.
	Cooldown time.Duration
}

// Frontier is a Redis-backed crawl frontier.
type Frontier struct {
	rdb      *redis.Client
	cooldown time.Duration
}

// New creates a frontier client. It does not dial until first use.
func New(cfg Config) *Frontier {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Frontier{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		cooldown: cooldown,
	}
}

// MarkSeen records a URL as fetched. It reports whether the URL was new.
func (f *Frontier) MarkSeen(ctx context.Context, url string) (bool, error) {
	added, err := f.rdb.SAdd(ctx, seenKey, url).Result()
	if err != nil {
		return false, fmt.Errorf("mark seen: %w", err)
	}
	return added == 1, nil
}

// Seen reports whether a URL has already been fetched.
func (f *Frontier) Seen(ctx context.Context, url string) (bool, error) {
	seen, err := f.rdb.SIsMember(ctx, seenKey, url).Result()
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return seen, nil
}

// ReserveDomain attempts to claim a fetch slot for a domain. It returns
// false while the domain is cooling down from a previous fetch.
func (f *Frontier) ReserveDomain(ctx context.Context, domain string) (bool, error) {
	ok, err := f.rdb.SetNX(ctx, fmt.Sprintf(domainKeyFmt, domain), time.Now().Unix(), f.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("reserve domain %s: %w", domain, err)
	}
	return ok, nil
}

// Ping verifies connectivity at startup.
func (f *Frontier) Ping(ctx context.Context) error {
	return f.rdb.Ping(ctx).Err()
}

func (f *Frontier) Close() error {
	return f.rdb.Close()
}
