package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"

	domain "github.com/example/chat-relay/domain/chat"
)

func TestRegistry_JoinCreatesRoom(t *testing.T) {
	reg := NewRegistry(100)

	created, count := reg.Join("lobby", "conn1")
	if !created {
		t.Error("Join() expected room creation on first join")
	}
	if count != 1 {
		t.Errorf("Join() count = %d, want 1", count)
	}

	created, count = reg.Join("lobby", "conn2")
	if created {
		t.Error("Join() room should only be created once")
	}
	if count != 2 {
		t.Errorf("Join() count = %d, want 2", count)
	}
}

func TestRegistry_JoinAbsorbsDuplicate(t *testing.T) {
	reg := NewRegistry(100)

	reg.Join("lobby", "conn1")
	_, count := reg.Join("lobby", "conn1")
	if count != 1 {
		t.Errorf("Join() duplicate member count = %d, want 1", count)
	}
}

func TestRegistry_EmptyRoomID(t *testing.T) {
	reg := NewRegistry(100)

	created, count := reg.Join("", "conn1")
	if !created || count != 1 {
		t.Errorf("Join() on empty id = (%v, %d), want (true, 1)", created, count)
	}

	snap, ok := reg.Snapshot("")
	if !ok {
		t.Fatal("Snapshot() expected empty-named room to exist")
	}
	if snap.UserCount != 1 {
		t.Errorf("Snapshot() UserCount = %d, want 1", snap.UserCount)
	}
}

func TestRegistry_Leave(t *testing.T) {
	reg := NewRegistry(100)
	reg.Join("lobby", "conn1")
	reg.Join("lobby", "conn2")

	tests := []struct {
		name      string
		roomID    string
		connID    string
		wantCount int
		wantOK    bool
	}{
		{name: "leave existing member", roomID: "lobby", connID: "conn1", wantCount: 1, wantOK: true},
		{name: "leave last member", roomID: "lobby", connID: "conn2", wantCount: 0, wantOK: true},
		{name: "leave unknown room", roomID: "nowhere", connID: "conn1", wantCount: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, ok := reg.Leave(tt.roomID, tt.connID)
			if ok != tt.wantOK {
				t.Errorf("Leave() ok = %v, want %v", ok, tt.wantOK)
			}
			if count != tt.wantCount {
				t.Errorf("Leave() count = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

func TestRegistry_AppendEvictsOldest(t *testing.T) {
	reg := NewRegistry(5)
	reg.Join("lobby", "conn1")

	for i := 0; i < 10; i++ {
		ok := reg.Append(domain.Message{
			ID:        fmt.Sprintf("msg-%d", i),
			RoomID:    "lobby",
			Content:   "hello",
			Timestamp: time.Now(),
		})
		if !ok {
			t.Fatalf("Append() message %d failed", i)
		}
	}

	history, ok := reg.History("lobby")
	if !ok {
		t.Fatal("History() expected room to exist")
	}
	if len(history) != 5 {
		t.Fatalf("History() length = %d, want 5", len(history))
	}
	// Oldest evicted first: the window is the last five appends
	if history[0].ID != "msg-5" {
		t.Errorf("History() first id = %q, want %q", history[0].ID, "msg-5")
	}
	if history[4].ID != "msg-9" {
		t.Errorf("History() last id = %q, want %q", history[4].ID, "msg-9")
	}
}

func TestRegistry_AppendUnknownRoom(t *testing.T) {
	reg := NewRegistry(100)

	if reg.Append(domain.Message{ID: "m1", RoomID: "nowhere"}) {
		t.Error("Append() to unknown room should report false")
	}
}

func TestRegistry_DeleteIfEmpty(t *testing.T) {
	reg := NewRegistry(100)
	reg.Join("lobby", "conn1")

	if reg.DeleteIfEmpty("lobby") {
		t.Error("DeleteIfEmpty() deleted a non-empty room")
	}

	reg.Leave("lobby", "conn1")
	if !reg.DeleteIfEmpty("lobby") {
		t.Error("DeleteIfEmpty() should delete an empty room")
	}
	if reg.Size() != 0 {
		t.Errorf("Size() = %d, want 0", reg.Size())
	}

	// Absent key is a no-op
	if reg.DeleteIfEmpty("lobby") {
		t.Error("DeleteIfEmpty() on absent room should report false")
	}
}

func TestRegistry_DeleteAbsentKey(t *testing.T) {
	reg := NewRegistry(100)
	reg.Delete("nowhere") // must not panic
}

func TestRegistry_Size(t *testing.T) {
	reg := NewRegistry(100)

	if reg.Size() != 0 {
		t.Errorf("Size() initial = %d, want 0", reg.Size())
	}

	reg.Join("a", "conn1")
	reg.Join("b", "conn2")
	reg.Join("a", "conn3")

	if reg.Size() != 2 {
		t.Errorf("Size() = %d, want 2", reg.Size())
	}
}

func TestRegistry_SnapshotUnknownRoom(t *testing.T) {
	reg := NewRegistry(100)

	if _, ok := reg.Snapshot("nowhere"); ok {
		t.Error("Snapshot() expected absent indication for unknown room")
	}
}

func TestRegistry_ConcurrentJoins(t *testing.T) {
	reg := NewRegistry(100)

	const members = 50
	var wg sync.WaitGroup
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reg.Join("lobby", fmt.Sprintf("conn-%d", n))
		}(i)
	}
	wg.Wait()

	snap, ok := reg.Snapshot("lobby")
	if !ok {
		t.Fatal("Snapshot() expected room to exist")
	}
	if snap.UserCount != members {
		t.Errorf("Snapshot() UserCount = %d, want %d", snap.UserCount, members)
	}
	if reg.Size() != 1 {
		t.Errorf("Size() = %d, want 1", reg.Size())
	}
}

func TestRegistry_ReapRacesWithJoin(t *testing.T) {
	reg := NewRegistry(100)

	// Hammer join/leave against DeleteIfEmpty; the invariant is that a
	// room present in the store is never observed without its member.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Join("busy", "conn1")
				reg.Leave("busy", "conn1")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.DeleteIfEmpty("busy")
			}
		}()
	}
	wg.Wait()

	// Final join must always land in a live room.
	_, count := reg.Join("busy", "conn1")
	if count != 1 {
		t.Errorf("Join() after churn count = %d, want 1", count)
	}
	snap, ok := reg.Snapshot("busy")
	if !ok || snap.UserCount != 1 {
		t.Errorf("Snapshot() after churn = (%+v, %v), want live room with 1 member", snap, ok)
	}
}

func BenchmarkRegistry_Append(b *testing.B) {
	reg := NewRegistry(100)
	reg.Join("bench", "conn1")

	msg := domain.Message{ID: "m", RoomID: "bench", Content: "benchmark message"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Append(msg)
	}
}
