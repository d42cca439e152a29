package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New(10)
	key := Key("search", "zapato", 20)

	c.Set(key, []string{"a", "b"})

	v, hit := c.Get(key, 60000)
	if !hit {
		t.Fatal("expected a cache hit")
	}
	got, ok := v.([]string)
	if !ok || len(got) != 2 {
		t.Errorf("unexpected cached value: %#v", v)
	}
}

func TestCache_MaxAgeZeroDisablesLookup(t *testing.T) {
	c := New(10)
	key := Key("search", "zapato", 20)
	c.Set(key, "v")

	if _, hit := c.Get(key, 0); hit {
		t.Error("maxAge <= 0 must bypass the cache")
	}
}

func TestCache_ExpiredEntryMisses(t *testing.T) {
	c := New(10)
	key := Key("product", "https://example.test/p/1", 0)
	c.Set(key, "v")

	time.Sleep(5 * time.Millisecond)
	if _, hit := c.Get(key, 1); hit {
		t.Error("entry older than maxAge must miss")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(3)
	for i := 0; i < 5; i++ {
		c.Set(Key("search", fmt.Sprintf("term-%d", i), 20), i)
	}
	if c.Len() > 3 {
		t.Errorf("cache grew past capacity: %d entries", c.Len())
	}
}

func TestKey_Distinct(t *testing.T) {
	a := Key("search", "zapato", 20)
	b := Key("search", "zapato", 10)
	if a == b {
		t.Error("different limits must produce different keys")
	}
	if a != Key("search", "zapato", 20) {
		t.Error("key must be deterministic")
	}
}
