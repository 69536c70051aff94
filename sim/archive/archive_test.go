package archive

import (
	"testing"

	"simcash/sim/txn"
)

func TestPutGetMemoryOnly(t *testing.T) {
	s := NewStore(nil)
	r := Record{TxID: "tx1", OriginalAmount: 1000, SettledAmount: 1000, Status: txn.Settled}
	if err := s.Put(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := s.Get("tx1")
	if !ok {
		t.Fatalf("expected record to be found")
	}
	if got.SettledAmount != 1000 {
		t.Fatalf("unexpected settled amount: %v", got.SettledAmount)
	}
}

func TestGetMissingReturnsFalse(t *testing.T) {
	s := NewStore(nil)
	if _, ok := s.Get("nope"); ok {
		t.Fatalf("expected not found")
	}
}

func TestEffectivelySettledLeafVsParent(t *testing.T) {
	leaf := Record{TxID: "c1", Status: txn.Settled}
	if !leaf.EffectivelySettled() {
		t.Fatalf("settled leaf record should be effectively settled")
	}
	parent := Record{TxID: "p1", Status: txn.Settled, ChildIDs: []string{"c1"}}
	if parent.EffectivelySettled() {
		t.Fatalf("a record with children is never directly effectively settled")
	}
}

func TestEvictRemovesFromMemoryButLeveldbIsNil(t *testing.T) {
	s := NewStore(nil)
	s.Put(Record{TxID: "tx1", Status: txn.Settled})
	s.Evict("tx1")
	if _, ok := s.Get("tx1"); ok {
		t.Fatalf("evicted record with no leveldb backing must not be found")
	}
}
