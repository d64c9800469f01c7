package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestFor_ZeroChunkConfig(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3}

	seen := make([]int32, 10)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, v := range seen {
		if v != 1 {
			t.Errorf("index %d visited %d times", i, v)
		}
	}
}

func TestDispatch(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	groups, groupSize := 5, 64
	hits := make([]int32, groups*groupSize)
	Dispatch(groups, groupSize, func(global int) {
		atomic.AddInt32(&hits[global], 1)
	}, cfg)

	for i, v := range hits {
		if v != 1 {
			t.Fatalf("invocation %d ran %d times", i, v)
		}
	}
}

func TestDispatch_NoGroups(t *testing.T) {
	called := false
	Dispatch(0, 64, func(int) { called = true }, DefaultConfig())
	if called {
		t.Error("expected no invocations for zero groups")
	}
}
