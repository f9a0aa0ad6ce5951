package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/surajpaudel2/sports-ticketing/pkg/config"
)

func testConfig() *config.RedisConfig {
	cfg := &config.RedisConfig{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	if host := os.Getenv("TEST_REDIS_HOST"); host != "" {
		cfg.Host = host
	}
	if password := os.Getenv("TEST_REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
	return cfg
}

func TestNewClient_InvalidHost(t *testing.T) {
	cfg := &config.RedisConfig{
		Host:        "invalid-host-that-does-not-exist",
		Port:        9999,
		DialTimeout: 100 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewClient(ctx, cfg); err == nil {
		t.Error("Expected error for invalid host, got nil")
	}
}

// Integration tests - require Redis to be running

func TestClient_BasicOperations_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testConfig())
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	testKey := "test:key:" + time.Now().Format("20060102150405")

	if err := client.Set(ctx, testKey, "test_value", time.Minute).Err(); err != nil {
		t.Errorf("Set failed: %v", err)
	}

	val, err := client.Get(ctx, testKey).Result()
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if val != "test_value" {
		t.Errorf("Expected 'test_value', got '%s'", val)
	}

	// SetNX on an existing key must not overwrite
	ok, err := client.SetNX(ctx, testKey, "other", time.Minute).Result()
	if err != nil {
		t.Errorf("SetNX failed: %v", err)
	}
	if ok {
		t.Error("SetNX on existing key should return false")
	}

	deleted, err := client.Del(ctx, testKey).Result()
	if err != nil {
		t.Errorf("Del failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected deleted=1, got %d", deleted)
	}

	exists, _ := client.Exists(ctx, testKey).Result()
	if exists != 0 {
		t.Error("Key should not exist after deletion")
	}
}

func TestClient_Keys_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testConfig())
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	defer client.Close()

	prefix := "test:scan:" + time.Now().Format("20060102150405")
	for _, suffix := range []string{":a", ":b", ":c"} {
		if err := client.Set(ctx, prefix+suffix, "1", time.Minute).Err(); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	defer client.Del(ctx, prefix+":a", prefix+":b", prefix+":c")

	keys, err := client.Keys(ctx, prefix+":*")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 3 {
		t.Errorf("Expected 3 keys, got %d", len(keys))
	}
}
