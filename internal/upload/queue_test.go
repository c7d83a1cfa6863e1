package upload

import (
	"fmt"
	"sync"
	"testing"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Push(Params{"seq": fmt.Sprint(i)})
	}

	for i := 0; i < 5; i++ {
		p, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop %d: queue reported closed", i)
		}
		if p["seq"] != fmt.Sprint(i) {
			t.Errorf("Pop %d: got seq %s", i, p["seq"])
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueueCloseDrainsThenReportsClosed(t *testing.T) {
	q := NewQueue()
	q.Push(Params{"seq": "0"})
	q.Close()

	if _, ok := q.Pop(); !ok {
		t.Fatal("expected buffered item before close takes effect")
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected ok=false after drain")
	}
	if q.Push(Params{"seq": "1"}) {
		t.Error("Push after Close should report false")
	}
}

// One producer, several blocked consumers: every pushed item is delivered
// exactly once with nothing lost.
func TestQueueConcurrentProducerConsumers(t *testing.T) {
	const items = 500
	const consumers = 8

	q := NewQueue()
	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				p, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[p["seq"]]++
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < items; i++ {
		q.Push(Params{"seq": fmt.Sprint(i)})
	}
	q.Close()
	wg.Wait()

	if len(seen) != items {
		t.Fatalf("delivered %d distinct items, want %d", len(seen), items)
	}
	for seq, n := range seen {
		if n != 1 {
			t.Errorf("item %s delivered %d times", seq, n)
		}
	}
}

func TestParamsCloneIsIndependent(t *testing.T) {
	p := Params{"vehicle": "HORIZON"}
	c := p.Clone()
	c["vehicle"] = "OTHER"

	if p["vehicle"] != "HORIZON" {
		t.Error("Clone shares storage with original")
	}
}

func TestParamsEncodeEscapesJSONField(t *testing.T) {
	p := Params{
		"vehicle": "HORIZON",
		"data":    `{"temp":"-54.5","note":"a&b=c"}`,
	}
	qs := p.Encode()

	want := "data=%7B%22temp%22%3A%22-54.5%22%2C%22note%22%3A%22a%26b%3Dc%22%7D&vehicle=HORIZON"
	if qs != want {
		t.Errorf("Encode() = %s, want %s", qs, want)
	}
}
