package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	want := payload{Name: "range", Count: 3, Mean: 1.5}
	if err := c.Set(ctx, "k", want, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got payload
	if !c.Get(ctx, "k", &got) {
		t.Fatal("Get() = false; want true")
	}
	if got != want {
		t.Errorf("Get() = %+v; want %+v", got, want)
	}

	if c.Get(ctx, "missing", &got) {
		t.Error("Get(missing) = true; want false")
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "a", payload{Count: 1}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	now = now.Add(59 * time.Second)
	var got payload
	if !c.Get(ctx, "a", &got) {
		t.Fatal("Get() before expiry = false; want true")
	}

	now = now.Add(time.Second)
	if c.Get(ctx, "a", &got) {
		t.Fatal("Get() at expiry = true; want false")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d; want expired entry removed", c.Len())
	}
}

func TestMemory_SetPrunesExpired(t *testing.T) {
	c := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, payload{}, time.Second); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}
	now = now.Add(2 * time.Second)
	if err := c.Set(ctx, "d", payload{}, time.Second); err != nil {
		t.Fatalf("Set(d) error = %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d; want 1", c.Len())
	}
}

func TestMemory_EvictsWhenFull(t *testing.T) {
	c := NewMemorySize(2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, payload{Name: k}, time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
		now = now.Add(time.Second)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d; want 2", c.Len())
	}
	var got payload
	if c.Get(ctx, "a", &got) {
		t.Error("Get(a) = true; want the oldest entry evicted")
	}
	for _, k := range []string{"b", "c"} {
		if !c.Get(ctx, k, &got) || got.Name != k {
			t.Errorf("Get(%s) = %+v; want kept", k, got)
		}
	}

	// overwriting a present key never evicts
	if err := c.Set(ctx, "b", payload{Name: "b2"}, time.Minute); err != nil {
		t.Fatalf("Set(b) error = %v", err)
	}
	if !c.Get(ctx, "c", &got) || c.Len() != 2 {
		t.Errorf("Len() = %d after overwrite; want c kept", c.Len())
	}
}

func TestMemory_DecodeMismatch(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []int{1, 2}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	var got payload
	if c.Get(ctx, "k", &got) {
		t.Error("Get() into wrong type = true; want false")
	}
}

func TestMemory_SetUnencodable(t *testing.T) {
	c := NewMemory()
	if err := c.Set(context.Background(), "k", make(chan int), time.Minute); err == nil {
		t.Error("Set(chan) error = nil; want non-nil")
	}
}

func TestNew(t *testing.T) {
	c, err := New(context.Background(), "", 3)
	if err != nil {
		t.Fatalf("New(\"\") error = %v", err)
	}
	m, ok := c.(*Memory)
	if !ok {
		t.Fatalf("New(\"\") = %T; want *Memory", c)
	}
	if m.limit != 3 {
		t.Errorf("limit = %d; want 3", m.limit)
	}
	if got := NewMemorySize(0).limit; got != DefaultMaxEntries {
		t.Errorf("NewMemorySize(0).limit = %d; want %d", got, DefaultMaxEntries)
	}

	if _, err := New(context.Background(), "not a url", 0); err == nil {
		t.Error("New(invalid) error = nil; want non-nil")
	}
}
