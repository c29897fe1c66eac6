package pcm

import (
	"sync"
	"testing"
)

func TestNewBridgeCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		expected int
	}{
		{"explicit", 1024, 1024},
		{"zero falls back to default", 0, DefaultCapacity},
		{"negative falls back to default", -5, DefaultCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(tt.capacity)
			if got := b.Capacity(); got != tt.expected {
				t.Errorf("Capacity() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestWriteShortChunkZeroPadsTail(t *testing.T) {
	b := NewBridge(8)
	b.Write([]float64{1, 1, 1, 1, 1, 1, 1, 1})
	b.Write([]float64{0.5, 0.5, 0.5})

	got := b.Read()
	for i := 0; i < 3; i++ {
		if got[i] != 0.5 {
			t.Errorf("sample %d = %v, want 0.5", i, got[i])
		}
	}
	for i := 3; i < 8; i++ {
		if got[i] != 0 {
			t.Errorf("tail sample %d = %v, want 0 (stale data leaked)", i, got[i])
		}
	}
}

func TestWriteLongChunkTruncates(t *testing.T) {
	b := NewBridge(4)
	b.Write([]float64{1, 2, 3, 4, 5, 6})

	got := b.Read()
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i, want := range []float64{1, 2, 3, 4} {
		if got[i] != want {
			t.Errorf("sample %d = %v, want %v", i, got[i], want)
		}
	}
}

func TestReadReturnsDefensiveCopy(t *testing.T) {
	b := NewBridge(4)
	b.Write([]float64{1, 2, 3, 4})

	snapshot := b.Read()
	snapshot[0] = 99

	if got := b.Read()[0]; got != 1 {
		t.Errorf("internal buffer mutated through snapshot: sample 0 = %v, want 1", got)
	}
}

func TestReset(t *testing.T) {
	b := NewBridge(4)
	b.Write([]float64{1, 2, 3, 4})
	b.Reset()

	for i, v := range b.Read() {
		if v != 0 {
			t.Errorf("sample %d = %v after Reset, want 0", i, v)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	b := NewBridge(64)
	chunk := make([]float64, 64)
	for i := range chunk {
		chunk[i] = 0.25
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				b.Write(chunk)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				out := b.Read()
				if len(out) != 64 {
					t.Errorf("Read returned %d samples, want 64", len(out))
					return
				}
			}
		}()
	}
	wg.Wait()
}
