package scraper

import (
	"testing"

	"nepse-observer/src/interfaces"
	"nepse-observer/src/models"
)

// -----------------------------------------------------------------------------

func TestBatchCollectorFlushesFullBatches(t *testing.T) {
	var batches [][]models.MCompanyDetail
	sink := interfaces.BatchSinkFunc(func(batch []models.MCompanyDetail) error {
		batches = append(batches, batch)
		return nil
	})

	collector := newBatchCollector(10, sink)
	for i := 0; i < 23; i++ {
		if err := collector.Add(models.MCompanyDetail{SecurityID: int64(i + 1)}); err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
	}
	if err := collector.Flush(); err != nil {
		t.Fatalf("final flush failed: %v", err)
	}

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches for 23 entities, got %d", len(batches))
	}
	for i, want := range []int{10, 10, 3} {
		if len(batches[i]) != want {
			t.Errorf("batch %d: expected %d entities, got %d", i, want, len(batches[i]))
		}
	}

	// No entity lost or duplicated across batches.
	seen := make(map[int64]bool)
	for _, b := range batches {
		for _, d := range b {
			if seen[d.SecurityID] {
				t.Errorf("security %d flushed twice", d.SecurityID)
			}
			seen[d.SecurityID] = true
		}
	}
	if len(seen) != 23 {
		t.Errorf("expected 23 distinct entities, got %d", len(seen))
	}
}

// -----------------------------------------------------------------------------

func TestBatchCollectorEmptyFlush(t *testing.T) {
	calls := 0
	sink := interfaces.BatchSinkFunc(func(batch []models.MCompanyDetail) error {
		calls++
		return nil
	})

	collector := newBatchCollector(10, sink)
	if err := collector.Flush(); err != nil {
		t.Fatalf("empty flush failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("sink must not run on an empty buffer, got %d calls", calls)
	}
}
