package eventlog

import (
	"fmt"
	"sync"
	"testing"
)

const fixedTS = "2024-05-01 10:00:00 MDT"

func newTestLog(t *testing.T, capacity int) *Log {
	t.Helper()
	return New(Options{
		Capacity: capacity,
		Gate:     NewGate(),
		Clock:    ClockFunc(func() string { return fixedTS }),
	})
}

func messages(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Message
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEmptySnapshotIsEmptyNotNil(t *testing.T) {
	l := newTestLog(t, 3)
	got := l.Snapshot()
	if got == nil {
		t.Fatalf("snapshot of empty log must be non-nil")
	}
	if len(got) != 0 {
		t.Fatalf("want empty snapshot, got %d", len(got))
	}
}

func TestCapacityThreeScenario(t *testing.T) {
	l := newTestLog(t, 3)
	l.System("a")
	l.Transport("10.0.0.5", "10.0.0.1", "b")
	l.Radio("c")

	got := l.Snapshot()
	if !equalStrings(messages(got), []string{"a", "b", "c"}) {
		t.Fatalf("snapshot = %v", messages(got))
	}
	if got[1].Source != "10.0.0.5" || got[1].Destination != "10.0.0.1" {
		t.Fatalf("transport endpoints lost: %+v", got[1])
	}
	if got[0].Category != System || got[1].Category != Transport || got[2].Category != Radio {
		t.Fatalf("categories = %v %v %v", got[0].Category, got[1].Category, got[2].Category)
	}

	l.System("d")
	if got := messages(l.Snapshot()); !equalStrings(got, []string{"b", "c", "d"}) {
		t.Fatalf("after eviction snapshot = %v", got)
	}
}

func TestEvictionKeepsNewestInOrder(t *testing.T) {
	const capacity = 10
	l := newTestLog(t, capacity)
	for i := 1; i <= capacity+1; i++ {
		l.System(fmt.Sprintf("R%d", i))
	}
	got := l.Snapshot()
	if len(got) != capacity {
		t.Fatalf("len = %d, want %d", len(got), capacity)
	}
	for i, r := range got {
		if want := fmt.Sprintf("R%d", i+2); r.Message != want {
			t.Fatalf("index %d = %q, want %q", i, r.Message, want)
		}
	}
	st := l.Stats()
	if st.Evicted != 1 || st.Len != capacity || st.LastSeq != capacity+1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestCapacityInvariantOverManyAppends(t *testing.T) {
	const capacity = 7
	l := newTestLog(t, capacity)
	for k := 0; k < 50; k++ {
		l.Radio(fmt.Sprint(k))
		n := len(l.Snapshot())
		if n > capacity {
			t.Fatalf("len %d exceeds capacity after %d appends", n, k+1)
		}
		if k+1 >= capacity && n != capacity {
			t.Fatalf("len %d, want %d after %d appends", n, capacity, k+1)
		}
	}
}

func TestDefaultCapacity(t *testing.T) {
	l := New(Options{})
	if l.Capacity() != DefaultCapacity {
		t.Fatalf("capacity = %d, want %d", l.Capacity(), DefaultCapacity)
	}
}

func TestGateSuppression(t *testing.T) {
	l := newTestLog(t, 5)
	l.System("keep")
	before := l.Snapshot()

	l.Gate().Set(Radio, false)
	for i := 0; i < 4; i++ {
		l.Radio("x")
	}
	after := l.Snapshot()
	if !equalStrings(messages(before), messages(after)) {
		t.Fatalf("disabled category changed the log: %v -> %v", messages(before), messages(after))
	}
	if st := l.Stats(); st.Suppressed != 4 {
		t.Fatalf("suppressed = %d, want 4", st.Suppressed)
	}

	l.Gate().Set(Radio, true)
	l.Radio("y")
	if got := messages(l.Snapshot()); !equalStrings(got, []string{"keep", "y"}) {
		t.Fatalf("re-enabled radio not admitted: %v", got)
	}
}

func TestSuppressedAppendTakesNoTimestamp(t *testing.T) {
	calls := 0
	l := New(Options{Capacity: 2, Clock: ClockFunc(func() string { calls++; return fixedTS })})
	l.Gate().Set(System, false)
	l.System("x")
	if calls != 0 {
		t.Fatalf("clock consulted %d times for a suppressed append", calls)
	}
}

func TestUnknownCategoryIsDropped(t *testing.T) {
	l := newTestLog(t, 2)
	l.Append(Category(0), "nope", "", "")
	l.Append(Category(9), "nope", "", "")
	if l.Len() != 0 {
		t.Fatalf("unknown categories admitted")
	}
}

func TestEndpointsClearedForNonTransport(t *testing.T) {
	l := newTestLog(t, 2)
	l.Append(System, "boot", "1.2.3.4", "5.6.7.8")
	r := l.Snapshot()[0]
	if r.Source != "" || r.Destination != "" {
		t.Fatalf("system record kept endpoints: %+v", r)
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	l := newTestLog(t, 2)
	l.System("orig")
	s1 := l.Snapshot()
	s1[0].Message = "mutated"
	if got := l.Snapshot()[0].Message; got != "orig" {
		t.Fatalf("snapshot aliased internal storage: %q", got)
	}
}

func TestSnapshotIdempotent(t *testing.T) {
	l := newTestLog(t, 4)
	l.System("a")
	l.Radio("b")
	s1, s2 := l.Snapshot(), l.Snapshot()
	if len(s1) != len(s2) {
		t.Fatalf("lengths differ")
	}
	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("index %d differs: %+v vs %+v", i, s1[i], s2[i])
		}
	}
}

func TestSnapshotSince(t *testing.T) {
	l := newTestLog(t, 3)
	for i := 1; i <= 5; i++ {
		l.System(fmt.Sprint(i))
	}
	// ring holds seq 3,4,5
	tests := []struct {
		after uint64
		want  []string
	}{
		{0, []string{"3", "4", "5"}},
		{2, []string{"3", "4", "5"}},
		{3, []string{"4", "5"}},
		{4, []string{"5"}},
		{5, []string{}},
		{99, []string{}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.after), func(t *testing.T) {
			got := messages(l.SnapshotSince(tt.after))
			if !equalStrings(got, tt.want) {
				t.Fatalf("SnapshotSince(%d) = %v, want %v", tt.after, got, tt.want)
			}
		})
	}
}

func TestConcurrentAppendersAndReaders(t *testing.T) {
	const (
		capacity  = 50
		producers = 3
		perProd   = 500
	)
	l := newTestLog(t, capacity)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	readerErr := make(chan error, 1)
	go func() {
		for {
			select {
			case <-stop:
				readerErr <- nil
				return
			default:
			}
			snap := l.Snapshot()
			if len(snap) > capacity {
				readerErr <- fmt.Errorf("snapshot len %d > capacity", len(snap))
				return
			}
			for i := 1; i < len(snap); i++ {
				if snap[i].Seq != snap[i-1].Seq+1 {
					readerErr <- fmt.Errorf("non-contiguous seqs %d -> %d", snap[i-1].Seq, snap[i].Seq)
					return
				}
			}
		}
	}()

	cats := []Category{System, Transport, Radio}
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				l.Append(cats[p], fmt.Sprintf("%d-%d", p, i), "s", "d")
			}
		}(p)
	}
	wg.Wait()
	close(stop)
	if err := <-readerErr; err != nil {
		t.Fatal(err)
	}

	snap := l.Snapshot()
	if len(snap) != capacity {
		t.Fatalf("final len = %d, want %d", len(snap), capacity)
	}
	if last := snap[len(snap)-1].Seq; last != producers*perProd {
		t.Fatalf("last seq = %d, want %d", last, producers*perProd)
	}
	// per-producer order survives
	lastIdx := map[Category]int{}
	for _, r := range snap {
		var p, i int
		if _, err := fmt.Sscanf(r.Message, "%d-%d", &p, &i); err != nil {
			t.Fatalf("parse %q: %v", r.Message, err)
		}
		if prev, ok := lastIdx[r.Category]; ok && i <= prev {
			t.Fatalf("producer %d reordered: %d after %d", p, i, prev)
		}
		lastIdx[r.Category] = i
	}
}
