// Package allowlist downloads plain-text address lists and answers
// membership queries against them.
package allowlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

const maxListBytes = 16 << 20

// Fetcher downloads lists and caches the parsed address set per URL.
type Fetcher struct {
	client *http.Client
	cache  *expirable.LRU[string, map[string]struct{}]
}

// NewFetcher creates a fetcher whose results live for ttl.
func NewFetcher(client *http.Client, ttl time.Duration, size int) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if size <= 0 {
		size = 32
	}
	return &Fetcher{
		client: client,
		cache:  expirable.NewLRU[string, map[string]struct{}](size, nil, ttl),
	}
}

// Fetch downloads url and returns its addresses, normalised, in file order.
// Blank lines and lines starting with '#' are ignored.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch list %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch list %s: http %d", url, resp.StatusCode)
	}

	var out []string
	sc := bufio.NewScanner(io.LimitReader(resp.Body, maxListBytes))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addr, err := utils.NormalizeAddress(line)
		if err != nil {
			// Keep non-hex entries verbatim, lowercased.
			addr = strings.ToLower(line)
		}
		out = append(out, addr)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", url, err)
	}
	return out, nil
}

func (f *Fetcher) set(ctx context.Context, url string) (map[string]struct{}, error) {
	if set, ok := f.cache.Get(url); ok {
		return set, nil
	}
	addrs, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	f.cache.Add(url, set)
	log.WithFields(log.Fields{"url": url, "entries": len(set)}).Debug("Cached allow list")
	return set, nil
}

// Member reports whether wallet is on the list at url.
func (f *Fetcher) Member(ctx context.Context, url, wallet string) (bool, error) {
	set, err := f.set(ctx, url)
	if err != nil {
		return false, err
	}
	addr, err := utils.NormalizeAddress(wallet)
	if err != nil {
		return false, err
	}
	_, ok := set[addr]
	return ok, nil
}

// Contains is Member that fails closed: any error means not a member.
func (f *Fetcher) Contains(ctx context.Context, url, wallet string) bool {
	ok, err := f.Member(ctx, url, wallet)
	if err != nil {
		log.WithError(err).WithField("url", url).Warn("Allow list check failed, treating as non-member")
		return false
	}
	return ok
}

// Purge drops every cached list.
func (f *Fetcher) Purge() {
	f.cache.Purge()
}
