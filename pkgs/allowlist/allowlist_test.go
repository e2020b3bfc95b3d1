package allowlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var member = "0x" + strings.Repeat("ab", 32)

func listServer(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetch(t *testing.T) {
	srv, _ := listServer(t, "# og list\n\n  "+strings.ToUpper(member)+"  \n0x2\r\nnot-an-address\n")
	f := NewFetcher(nil, time.Minute, 4)

	addrs, err := f.Fetch(context.Background(), srv.URL+"/og.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{
		member,
		"0x" + strings.Repeat("0", 63) + "2",
		"not-an-address",
	}, addrs)
}

func TestContains_CachesAndNormalises(t *testing.T) {
	srv, hits := listServer(t, member+"\n")
	f := NewFetcher(nil, time.Minute, 4)
	ctx := context.Background()

	assert.True(t, f.Contains(ctx, srv.URL+"/og.txt", strings.ToUpper(member)))
	assert.False(t, f.Contains(ctx, srv.URL+"/og.txt", "0x1"))
	assert.Equal(t, int32(1), hits.Load())

	f.Purge()
	assert.True(t, f.Contains(ctx, srv.URL+"/og.txt", member))
	assert.Equal(t, int32(2), hits.Load())
}

func TestContains_FailsClosed(t *testing.T) {
	srv, _ := listServer(t, member)
	f := NewFetcher(nil, time.Minute, 4)

	assert.False(t, f.Contains(context.Background(), srv.URL+"/missing", member))
	assert.False(t, f.Contains(context.Background(), "http://127.0.0.1:1/og.txt", member))

	_, err := f.Member(context.Background(), srv.URL+"/missing", member)
	assert.Error(t, err)
}
