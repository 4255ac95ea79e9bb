package session

import (
	"reflect"
	"testing"
)

func TestBoundedCache_EvictsOldest(t *testing.T) {
	c := NewBoundedCache[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	evicted := c.Put("d", 4)

	if !reflect.DeepEqual(evicted, []string{"a"}) {
		t.Errorf("evicted = %v, want [a]", evicted)
	}
	if !reflect.DeepEqual(c.Keys(), []string{"d", "c", "b"}) {
		t.Errorf("Keys() = %v", c.Keys())
	}
	if c.Len() != 3 || c.Cap() != 3 {
		t.Errorf("Len/Cap = %d/%d", c.Len(), c.Cap())
	}
}

func TestBoundedCache_OverwriteRefreshes(t *testing.T) {
	c := NewBoundedCache[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	if evicted := c.Put("a", 10); evicted != nil {
		t.Fatalf("overwrite should not evict, got %v", evicted)
	}

	c.Put("c", 3)

	if c.Contains("b") {
		t.Error("b should have been evicted after a was rewritten")
	}
	if v, ok := c.Get("a"); !ok || v != 10 {
		t.Errorf("Get(a) = %v, %v; want 10, true", v, ok)
	}
}

func TestBoundedCache_Remove(t *testing.T) {
	c := NewBoundedCache[int, string](2)
	c.Put(1, "x")
	c.Remove(1)
	c.Remove(42)

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Error("Get() found removed key")
	}
	if len(c.Values()) != 0 {
		t.Error("Values() should be empty")
	}
}
