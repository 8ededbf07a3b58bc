package cmd

import "testing"

func TestPaginate(t *testing.T) {
	results := []int{1, 2, 3, 4, 5}

	page1, total, pageUsed := paginate(results, 1, 2)
	if total != 5 || pageUsed != 1 || len(page1) != 2 {
		t.Fatalf("unexpected page1 results: total=%d page=%d len=%d", total, pageUsed, len(page1))
	}

	page3, total, pageUsed := paginate(results, 3, 2)
	if total != 5 || pageUsed != 3 || len(page3) != 1 || page3[0] != 5 {
		t.Fatalf("unexpected page3 results: total=%d page=%d got=%v", total, pageUsed, page3)
	}

	page4, total, pageUsed := paginate(results, 4, 2)
	if total != 5 || pageUsed != 4 || len(page4) != 0 {
		t.Fatalf("unexpected page4 results: total=%d page=%d len=%d", total, pageUsed, len(page4))
	}

	all, _, pageUsed := paginate(results, 0, 0)
	if len(all) != 5 || pageUsed != 1 {
		t.Fatalf("expected all results on page 1, got len=%d page=%d", len(all), pageUsed)
	}
}
