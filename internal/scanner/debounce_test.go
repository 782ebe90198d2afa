package scanner

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestDebouncerCommitsLastValue(t *testing.T) {
	d := New(30 * time.Millisecond)

	var mu sync.Mutex
	var got []string
	commit := func(v string) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	}

	d.Touch("C", commit)
	d.Touch("CA", commit)
	d.Touch("CART-A", commit)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("commits = %v, want exactly one", got)
	}
	if got[0] != "CART-A" {
		t.Errorf("committed %q, want the final value", got[0])
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := New(30 * time.Millisecond)

	var mu sync.Mutex
	fired := false
	d.Touch("CART-A", func(string) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Error("cancelled commit should not fire")
	}
}

func TestDebouncerNeverCommitsTwicePerArm(t *testing.T) {
	d := New(time.Millisecond)

	var mu sync.Mutex
	var got []string
	commit := func(v string) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	}

	// Touch right on the window edge so expiring timers race re-arms.
	// Each armed value may commit at most once, and the final value must
	// still come through exactly once.
	for i := 0; i < 200; i++ {
		d.Touch(strconv.Itoa(i), commit)
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	seen := make(map[string]int, len(got))
	for _, v := range got {
		seen[v]++
		if seen[v] > 1 {
			t.Fatalf("value %q committed %d times", v, seen[v])
		}
	}
	if len(got) == 0 || got[len(got)-1] != "199" {
		t.Errorf("commits = %v, want the final value last", got)
	}
}

func TestDebouncerFlush(t *testing.T) {
	d := New(time.Hour)

	got := ""
	d.Touch("CART-A", func(string) { t.Error("timer commit should not fire after flush") })
	d.Flush(func(v string) { got = v })

	if got != "CART-A" {
		t.Errorf("flushed %q, want CART-A", got)
	}

	// A flush with nothing pending is a no-op.
	d.Flush(func(v string) { t.Errorf("unexpected flush of %q", v) })
}
