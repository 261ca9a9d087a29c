package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func TestAllow_BurstThenReject(t *testing.T) {
	l := New(Config{RequestsPerMinute: 60, BurstSize: 3, CleanupInterval: time.Minute})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("client") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if l.Allow("client") {
		t.Error("request beyond burst should be rejected")
	}
}

func TestAllow_TokensRefill(t *testing.T) {
	// 600 rpm = 10 tokens/sec, so the bucket refills within a short sleep.
	l := New(Config{RequestsPerMinute: 600, BurstSize: 1, CleanupInterval: time.Minute})
	defer l.Stop()

	if !l.Allow("client") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("client") {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow("client") {
		t.Error("bucket should have refilled")
	}
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l := New(Config{RequestsPerMinute: 60, BurstSize: 1, CleanupInterval: time.Minute})
	defer l.Stop()

	if !l.Allow("a") {
		t.Fatal("first client should be allowed")
	}
	if l.Allow("a") {
		t.Fatal("first client should be exhausted")
	}
	if !l.Allow("b") {
		t.Error("second client should have its own bucket")
	}
}

func TestNew_DefaultsOnInvalidConfig(t *testing.T) {
	l := New(Config{})
	defer l.Stop()

	if !l.Allow("client") {
		t.Error("limiter with default config should allow requests")
	}
}

func TestAllow_ManyClients(t *testing.T) {
	l := New(Config{RequestsPerMinute: 60, BurstSize: 2, CleanupInterval: time.Minute})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		if !l.Allow(fmt.Sprintf("client_%d", i)) {
			t.Fatalf("fresh client %d should be allowed", i)
		}
	}
}
