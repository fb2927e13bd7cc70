package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// newMiniredis starts an in-process server and a client bound to it. Both are
// closed when the test ends.
func newMiniredis(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, srv
}

// seedVersion stores a cached value directly, as a concurrent writer would.
func seedVersion(t *testing.T, srv *miniredis.Miniredis, key, value, version string) {
	t.Helper()

	if err := srv.Set("cache:"+key, value); err != nil {
		t.Fatalf("seed value: %v", err)
	}
	if err := srv.Set("cache:"+key+":version", version); err != nil {
		t.Fatalf("seed version: %v", err)
	}
}
