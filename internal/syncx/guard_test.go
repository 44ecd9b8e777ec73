package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(42)

	if got := g.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}

	g.Set(100)
	if got := g.Get(); got != 100 {
		t.Errorf("Get() after Set = %d, want 100", got)
	}
}

func TestGuardRead(t *testing.T) {
	g := NewGuard([]int{1, 2, 3})

	if n := Read(g, func(v []int) int { return len(v) }); n != 3 {
		t.Errorf("Read() = %d, want 3", n)
	}
}

func TestGuardWrite(t *testing.T) {
	type counter struct{ frames, cards int }
	g := NewGuard(counter{})

	g.Write(func(c *counter) {
		c.frames += 10
		c.cards++
	})

	if got := g.Get(); got.frames != 10 || got.cards != 1 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestGuardConcurrent(t *testing.T) {
	g := NewGuard(0)
	var wg sync.WaitGroup

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Write(func(v *int) { *v++ })
		}()
	}
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Get()
		}()
	}
	wg.Wait()

	if got := g.Get(); got != 100 {
		t.Errorf("after 100 increments Get() = %d, want 100", got)
	}
}

func TestVersioned(t *testing.T) {
	var v Versioned[string]

	if val, ver := v.Get(); val != "" || ver != 0 {
		t.Errorf("zero Versioned = (%q, %d)", val, ver)
	}
	if ver := v.Set("bolt"); ver != 1 {
		t.Errorf("first Set version = %d", ver)
	}
	v.Set("giant")
	if val, ver := v.Get(); val != "giant" || ver != 2 {
		t.Errorf("Get() = (%q, %d), want (giant, 2)", val, ver)
	}
	if ver := v.Clear(); ver != 3 {
		t.Errorf("Clear version = %d", ver)
	}
	if val, _ := v.Get(); val != "" {
		t.Errorf("after Clear value = %q", val)
	}
}
