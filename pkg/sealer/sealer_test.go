package sealer

import (
	"strings"
	"testing"
	"time"
)

func TestSealAndOpenSlot(t *testing.T) {
	s, err := New("test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)
	end := start.Add(time.Hour)

	token, err := s.SealSlot("room-a", start, end, now)
	if err != nil {
		t.Fatalf("SealSlot: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claim, err := s.OpenSlot(token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("OpenSlot: %v", err)
	}
	if claim.ResourceID != "room-a" {
		t.Errorf("ResourceID = %q, want room-a", claim.ResourceID)
	}
	if !claim.StartTime.Equal(start) || !claim.EndTime.Equal(end) {
		t.Errorf("claim span = [%v, %v), want [%v, %v)", claim.StartTime, claim.EndTime, start, end)
	}
}

func TestOpenSlotExpired(t *testing.T) {
	s, err := New("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	token, err := s.SealSlot("room-a", now.Add(time.Hour), now.Add(2*time.Hour), now)
	if err != nil {
		t.Fatalf("SealSlot: %v", err)
	}

	if _, err := s.OpenSlot(token, now.Add(2*time.Minute)); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestOpenSlotTampered(t *testing.T) {
	s, err := New("test-secret", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Now().UTC()
	token, err := s.SealSlot("room-a", now, now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("SealSlot: %v", err)
	}

	tampered := token[:len(token)-2] + "zz"
	if tampered == token {
		tampered = token[:len(token)-2] + "qq"
	}
	if _, err := s.OpenSlot(tampered, now); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestOpenSlotWrongKey(t *testing.T) {
	a, _ := New("secret-a", 0)
	b, _ := New("secret-b", 0)

	now := time.Now().UTC()
	token, err := a.SealSlot("room-a", now, now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("SealSlot: %v", err)
	}

	if _, err := b.OpenSlot(token, now); err == nil {
		t.Fatal("expected token sealed with another key to be rejected")
	}
}

func TestOpenSlotMalformed(t *testing.T) {
	s, _ := New("test-secret", 0)

	for _, token := range []string{"", "abc", strings.Repeat("A", 8), "not base64!!!"} {
		if _, err := s.OpenSlot(token, time.Now()); err == nil {
			t.Errorf("OpenSlot(%q): expected error", token)
		}
	}
}

func TestNewEmptySecret(t *testing.T) {
	if _, err := New("", time.Minute); err == nil {
		t.Fatal("expected empty secret to be rejected")
	}
}
