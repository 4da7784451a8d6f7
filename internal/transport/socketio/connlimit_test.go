package socketio

import "testing"

func TestConnLimitLocalClientsUnlimited(t *testing.T) {
	cl := NewConnectionLimiter(1)

	for _, id := range []string{"a", "b", "c", "d"} {
		allowed, evicted := cl.TryAdd(id, "127.0.0.1")
		if !allowed || evicted != "" {
			t.Errorf("local client %s: allowed=%v evicted=%q", id, allowed, evicted)
		}
	}
	if cl.ExternalCount() != 0 {
		t.Errorf("local clients must not count as external, got %d", cl.ExternalCount())
	}
}

func TestConnLimitIPv6Loopback(t *testing.T) {
	cl := NewConnectionLimiter(1)
	cl.TryAdd("ext", "10.0.0.5")

	if _, evicted := cl.TryAdd("local6", "::1"); evicted != "" {
		t.Errorf("ipv6 loopback must not evict, got %q", evicted)
	}
}

func TestConnLimitEvictsOldestExternal(t *testing.T) {
	cl := NewConnectionLimiter(2)

	cl.TryAdd("first", "192.168.1.10")
	cl.TryAdd("second", "192.168.1.11")

	allowed, evicted := cl.TryAdd("third", "192.168.1.12")
	if !allowed {
		t.Fatal("new external client should be admitted")
	}
	if evicted != "first" {
		t.Errorf("expected oldest client evicted, got %q", evicted)
	}
	if cl.ExternalCount() != 2 {
		t.Errorf("external count = %d, want 2", cl.ExternalCount())
	}
}

func TestConnLimitRemoveFreesSlot(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("first", "192.168.1.10")
	cl.Remove("first")

	if _, evicted := cl.TryAdd("second", "192.168.1.11"); evicted != "" {
		t.Errorf("slot should be free after Remove, evicted %q", evicted)
	}
}

func TestConnLimitDuplicateAddIsIdempotent(t *testing.T) {
	cl := NewConnectionLimiter(1)

	cl.TryAdd("only", "192.168.1.10")
	if _, evicted := cl.TryAdd("only", "192.168.1.10"); evicted != "" {
		t.Errorf("re-adding the same client must not evict, got %q", evicted)
	}
	if cl.ExternalCount() != 1 {
		t.Errorf("external count = %d, want 1", cl.ExternalCount())
	}
}

func TestConnLimitRemoveUnknownIsNoOp(t *testing.T) {
	cl := NewConnectionLimiter(1)
	cl.Remove("ghost")
	if cl.ExternalCount() != 0 {
		t.Error("removing an unknown client changed state")
	}
}
