package redis

import (
	"context"
	"testing"
	"time"
)

func TestSessionRegistryClaimAndRelease(t *testing.T) {
	mr, client := newClient(t)
	registry := NewSessionRegistry(client, time.Minute)
	ctx := context.Background()

	ok, err := registry.Claim(ctx, "a1", "conn-1")
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	if !mr.Exists("attempt:session:a1") {
		t.Fatalf("expected redis key to be set")
	}

	ok, err = registry.Claim(ctx, "a1", "conn-2")
	if err != nil || ok {
		t.Fatalf("expected competing claim to fail, ok=%v err=%v", ok, err)
	}
	ok, _ = registry.Claim(ctx, "a1", "conn-1")
	if !ok {
		t.Fatalf("expected holder to re-claim")
	}

	if err := registry.Release(ctx, "a1", "conn-2"); err != nil {
		t.Fatalf("foreign release: %v", err)
	}
	if !mr.Exists("attempt:session:a1") {
		t.Fatalf("foreign release must not drop the claim")
	}

	if err := registry.Release(ctx, "a1", "conn-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("attempt:session:a1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionRegistryClaimExpires(t *testing.T) {
	mr, client := newClient(t)
	registry := NewSessionRegistry(client, time.Minute)
	ctx := context.Background()

	_, _ = registry.Claim(ctx, "a1", "conn-1")
	mr.FastForward(2 * time.Minute)

	ok, err := registry.Claim(ctx, "a1", "conn-2")
	if err != nil || !ok {
		t.Fatalf("expected stale claim to lapse, ok=%v err=%v", ok, err)
	}
}

func TestSessionRegistryRenewKeepsClaimAlive(t *testing.T) {
	mr, client := newClient(t)
	registry := NewSessionRegistry(client, time.Minute)
	ctx := context.Background()

	_, _ = registry.Claim(ctx, "a1", "conn-1")
	for i := 0; i < 3; i++ {
		mr.FastForward(40 * time.Second)
		if ok, err := registry.Claim(ctx, "a1", "conn-1"); err != nil || !ok {
			t.Fatalf("renew %d: ok=%v err=%v", i, ok, err)
		}
	}

	ok, err := registry.Claim(ctx, "a1", "conn-2")
	if err != nil || ok {
		t.Fatalf("renewed claim must still exclude others, ok=%v err=%v", ok, err)
	}
}
