package match

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()

	m, err := r.Create("host", ModeOneVOne)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.id != "host" {
		t.Errorf("match id = %s, want host", m.id)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	if _, err := r.Create("host", ModeOneVOne); !errors.Is(err, ErrHostAlreadyHosting) {
		t.Errorf("duplicate Create err = %v, want ErrHostAlreadyHosting", err)
	}

	// A player enrolled elsewhere cannot open a lobby.
	if err := r.reserve("enrolled", "host"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := r.Create("enrolled", ModeOneVOne); !errors.Is(err, ErrAlreadyInMatch) {
		t.Errorf("enrolled Create err = %v, want ErrAlreadyInMatch", err)
	}
}

func TestRegistryReserveRelease(t *testing.T) {
	r := NewRegistry()

	if err := r.reserve("p1", "m1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := r.reserve("p1", "m2"); !errors.Is(err, ErrAlreadyInMatch) {
		t.Errorf("double reserve err = %v, want ErrAlreadyInMatch", err)
	}

	r.release("p1")
	if err := r.reserve("p1", "m2"); err != nil {
		t.Errorf("reserve after release: %v", err)
	}
}

func TestRegistryConcurrentReserve(t *testing.T) {
	r := NewRegistry()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.reserve("racer", fmt.Sprintf("m%d", i))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("%d reservations succeeded, want exactly 1", won)
	}
}

func TestRegistryAttach(t *testing.T) {
	r := NewRegistry()

	m := newMatch("host", ModeOneVOne)
	m.players = append(m.players, "p2")
	if err := r.attach(m); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	// A second match sharing a roster player is rejected whole.
	conflict := newMatch("other", ModeOneVOne)
	conflict.players = append(conflict.players, "p2")
	if err := r.attach(conflict); !errors.Is(err, ErrAlreadyInMatch) {
		t.Fatalf("conflicting attach err = %v, want ErrAlreadyInMatch", err)
	}
	if _, ok := r.Get("other"); ok {
		t.Error("rejected attach left the match registered")
	}
	// And it left no partial reservations behind.
	if err := r.reserve("other", "m"); err != nil {
		t.Errorf("reserve after rejected attach: %v", err)
	}
}

func TestRegistryForEach(t *testing.T) {
	r := NewRegistry()
	for _, host := range []string{"a", "b", "c"} {
		if _, err := r.Create(host, ModeOneVOne); err != nil {
			t.Fatalf("Create %s: %v", host, err)
		}
	}

	seen := 0
	r.ForEach(func(m *Match) bool {
		seen++
		return true
	})
	if seen != 3 {
		t.Errorf("visited %d matches, want 3", seen)
	}

	seen = 0
	r.ForEach(func(m *Match) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Errorf("early stop visited %d matches, want 1", seen)
	}

	r.Remove("b")
	if r.Len() != 2 {
		t.Errorf("Len after Remove = %d, want 2", r.Len())
	}
}
