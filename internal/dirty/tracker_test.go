package dirty

import (
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

func TestTrackerLastWriteWins(t *testing.T) {
	tr := New()
	tr.RecordEdit(model.Product{ID: "7", Name: "Mouse", Price: "20", Stock: 10})
	tr.RecordEdit(model.Product{ID: "7", Name: "Mouse", Price: "25", Stock: 10})
	last := model.Product{ID: "7", Name: "Mouse X", Price: "25", Stock: 10}
	tr.RecordEdit(last)
	if tr.Len() != 1 {
		t.Fatalf("expected 1 tracked row, got %d", tr.Len())
	}
	got, ok := tr.Get("7")
	if !ok {
		t.Fatalf("not found")
	}
	if diff := cmp.Diff(last, got); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackerReplacesWholesale(t *testing.T) {
	tr := New()
	tr.RecordEdit(model.Product{ID: "1", Name: "A", Description: "first"})
	tr.RecordEdit(model.Product{ID: "1", Name: "B"})
	got, _ := tr.Get("1")
	if got.Description != "" {
		t.Fatalf("expected description from latest row only, got %q", got.Description)
	}
}

func TestTrackerSnapshotOrderIsFirstEdit(t *testing.T) {
	tr := New()
	for _, id := range []string{"3", "1", "2", "1"} {
		tr.RecordEdit(model.Product{ID: id})
	}
	var ids []string
	for _, p := range tr.SnapshotAll() {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"3", "1", "2"}, ids); diff != "" {
		t.Fatalf("order mismatch:\n%s", diff)
	}
}

func TestTrackerSnapshotIsCopy(t *testing.T) {
	tr := New()
	tr.RecordEdit(model.Product{ID: "1", Name: "A"})
	snap := tr.SnapshotAll()
	tr.RecordEdit(model.Product{ID: "1", Name: "B"})
	tr.RecordEdit(model.Product{ID: "2"})
	if len(snap) != 1 || snap[0].Name != "A" {
		t.Fatalf("snapshot changed after later edits: %+v", snap)
	}
}

func TestTrackerClear(t *testing.T) {
	tr := New()
	tr.RecordEdit(model.Product{ID: "1"})
	tr.Clear()
	if tr.Len() != 0 || len(tr.SnapshotAll()) != 0 {
		t.Fatalf("expected empty tracker")
	}
	tr.RecordEdit(model.Product{ID: "2"})
	if tr.Len() != 1 {
		t.Fatalf("tracker unusable after clear")
	}
}

func TestTrackerConcurrentEdits(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordEdit(model.Product{ID: strconv.Itoa(i % 10), Stock: model.Quantity(i)})
		}()
	}
	wg.Wait()
	if tr.Len() != 10 || len(tr.SnapshotAll()) != 10 {
		t.Fatalf("expected 10 tracked rows, got %d", tr.Len())
	}
}
