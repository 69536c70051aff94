package events

import "testing"

func TestAppendAssignsEmissionOrderIDs(t *testing.T) {
	log := NewLog("sim-1")
	e0 := log.Append(0, 0, KindArrival, "A", "tx1", ArrivalDetails{SenderID: "A", ReceiverID: "B", Amount: 100})
	e1 := log.Append(0, 0, KindRelease, "A", "tx1", ReleaseDetails{Amount: 100})
	if e0.ID != 0 || e1.ID != 1 {
		t.Fatalf("expected sequential IDs 0,1, got %d,%d", e0.ID, e1.ID)
	}
	if len(log.All()) != 2 {
		t.Fatalf("expected 2 events, got %d", len(log.All()))
	}
}

func TestSinceTickFiltersByTick(t *testing.T) {
	log := NewLog("sim-1")
	log.Append(0, 0, KindArrival, "A", "tx1", nil)
	log.Append(1, 0, KindArrival, "A", "tx2", nil)
	log.Append(1, 0, KindRelease, "A", "tx2", nil)

	got := log.SinceTick(1)
	if len(got) != 2 {
		t.Fatalf("expected 2 events at tick 1, got %d", len(got))
	}
}

func TestDigestDeterministicAndOrderSensitive(t *testing.T) {
	logA := NewLog("sim-1")
	logA.Append(0, 0, KindArrival, "A", "tx1", nil)
	logA.Append(0, 0, KindRelease, "A", "tx1", nil)

	logB := NewLog("sim-1")
	logB.Append(0, 0, KindArrival, "A", "tx1", nil)
	logB.Append(0, 0, KindRelease, "A", "tx1", nil)

	if logA.Digest() != logB.Digest() {
		t.Fatalf("identical event streams must produce identical digests")
	}

	logC := NewLog("sim-1")
	logC.Append(0, 0, KindRelease, "A", "tx1", nil)
	logC.Append(0, 0, KindArrival, "A", "tx1", nil)

	if logA.Digest() == logC.Digest() {
		t.Fatalf("reordered event streams must not share a digest")
	}
}

func TestDigestDiffersOnDifferentSimulationID(t *testing.T) {
	logA := NewLog("sim-1")
	logA.Append(0, 0, KindArrival, "A", "tx1", nil)

	logB := NewLog("sim-2")
	logB.Append(0, 0, KindArrival, "A", "tx1", nil)

	if logA.Digest() == logB.Digest() {
		t.Fatalf("different simulation IDs must not collide")
	}
}
