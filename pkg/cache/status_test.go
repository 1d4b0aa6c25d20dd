package cache

import (
	"testing"
	"time"
)

func TestSessionStatusSnapshot(t *testing.T) {
	c := Default()
	session := "test-" + time.Now().String()

	if _, ok := c.GetSessionStatus(session); ok {
		t.Fatalf("expected no snapshot initially")
	}

	snap := StatusSnapshot{Status: "CONNECTED", Session: session}
	c.SetSessionStatus(session, snap, 50*time.Millisecond)

	got, ok := c.GetSessionStatus(session)
	if !ok || got.Status != "CONNECTED" {
		t.Fatalf("expected cached snapshot, got %+v ok=%v", got, ok)
	}

	c.InvalidateSessionStatus(session)
	if _, ok := c.GetSessionStatus(session); ok {
		t.Fatalf("expected snapshot gone after invalidate")
	}

	c.SetSessionStatus(session, snap, 30*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.GetSessionStatus(session); ok {
		t.Fatalf("expected snapshot expired")
	}
}
