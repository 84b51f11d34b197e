package cache_test

import (
	"testing"
	"time"

	"github.com/eduforge/eduforge/internal/platform/cache"
	"github.com/eduforge/eduforge/internal/platform/config"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.CacheConfig
		wantErr bool
		wantDB  int
	}{
		{"plain", config.CacheConfig{URL: "redis://cache.internal:6379"}, false, 0},
		{"numbered db", config.CacheConfig{URL: "redis://cache.internal:6379/2"}, false, 2},
		{"with password", config.CacheConfig{URL: "redis://:sekret@cache.internal:6380/0"}, false, 0},
		{"tls scheme", config.CacheConfig{URL: "rediss://cache.internal:6380"}, false, 0},
		{"empty", config.CacheConfig{}, true, 0},
		{"wrong scheme", config.CacheConfig{URL: "http://cache.internal:6379"}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := cache.Options(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Options() should return an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Options() error = %v", err)
			}
			if opts.DB != tt.wantDB {
				t.Errorf("DB = %d, want %d", opts.DB, tt.wantDB)
			}
			// Progress writes must not stall behind a slow cache.
			if opts.WriteTimeout != 3*time.Second {
				t.Errorf("WriteTimeout = %v, want 3s", opts.WriteTimeout)
			}
		})
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	cfg := config.CacheConfig{URL: "redis://127.0.0.1:1"}
	if _, err := cache.New(t.Context(), cfg); err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}
