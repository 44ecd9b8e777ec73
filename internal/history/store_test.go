package history

import (
	"testing"
	"time"
)

func TestStoreAdd(t *testing.T) {
	s := NewStore(30)
	s.Add(Entry{EventID: "ev-1", BestID: "alpha/bolt", Distance: 4, Matched: true})

	got := s.Recent(0)
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].EventID != "ev-1" || got[0].BestID != "alpha/bolt" || got[0].Time.IsZero() {
		t.Errorf("unexpected entry: %+v", got[0])
	}
}

func TestStoreMaxSize(t *testing.T) {
	s := NewStore(5)
	for i := 0; i < 10; i++ {
		s.Add(Entry{Distance: i})
	}

	got := s.Recent(0)
	if len(got) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(got))
	}
	if got[0].Distance != 5 || got[4].Distance != 9 {
		t.Errorf("kept wrong entries: first %d last %d", got[0].Distance, got[4].Distance)
	}
}

func TestRecentWindow(t *testing.T) {
	s := NewStore(30)
	s.Add(Entry{EventID: "old", Time: time.Now().Add(-5 * time.Minute)})
	s.Add(Entry{EventID: "new"})

	got := s.Recent(time.Minute)
	if len(got) != 1 || got[0].EventID != "new" {
		t.Errorf("Recent(1m) = %+v", got)
	}
	if got := s.Recent(0); len(got) != 2 {
		t.Errorf("Recent(0) returned %d entries", len(got))
	}
}

func TestRecentIsACopy(t *testing.T) {
	s := NewStore(3)
	s.Add(Entry{EventID: "a"})
	got := s.Recent(0)
	got[0].EventID = "changed"
	if s.Recent(0)[0].EventID != "a" {
		t.Error("Recent exposed internal storage")
	}
}

func TestClear(t *testing.T) {
	s := NewStore(3)
	s.Add(Entry{})
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d", s.Len())
	}
	if got := s.Recent(time.Hour); len(got) != 0 {
		t.Errorf("Recent after Clear = %+v", got)
	}
}
