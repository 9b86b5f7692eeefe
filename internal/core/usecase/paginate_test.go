package usecase

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/automation-dashboard/internal/core/domain"
)

func TestPaginatePageButtonsForTwentyFive(t *testing.T) {
	page := Paginate(inventoryFixture(), 1, domain.PageSizeOf(25))
	if diff := cmp.Diff([]int{1, 2, 3, 4}, page.PageButtons); diff != "" {
		t.Fatalf("page buttons mismatch (-want +got):\n%s", diff)
	}
	if len(page.Items) != 25 {
		t.Fatalf("expected 25 items, got %d", len(page.Items))
	}
	if page.Label() != "Showing 1–25 of 98" {
		t.Fatalf("unexpected label %q", page.Label())
	}
	if page.HasPrev || !page.HasNext {
		t.Fatalf("unexpected nav flags prev=%v next=%v", page.HasPrev, page.HasNext)
	}
}

func TestPaginateLastPageIsPartial(t *testing.T) {
	processes := inventoryFixture()
	page := Paginate(processes, 4, domain.PageSizeOf(25))
	if len(page.Items) != 23 {
		t.Fatalf("expected 23 items on last page, got %d", len(page.Items))
	}
	if page.Items[0].ID != processes[75].ID {
		t.Fatalf("expected last page to start at index 75, got %s", page.Items[0].ID)
	}
	if page.Label() != "Showing 76–98 of 98" {
		t.Fatalf("unexpected label %q", page.Label())
	}
	if page.HasNext {
		t.Fatalf("last page must not have next")
	}
}

func TestPaginateClampsOutOfRangePage(t *testing.T) {
	processes := inventoryFixture()[:30]

	high := Paginate(processes, 9, domain.PageSizeOf(25))
	if high.CurrentPage != 2 || len(high.Items) != 5 {
		t.Fatalf("expected clamp to page 2 with 5 items, got page=%d items=%d", high.CurrentPage, len(high.Items))
	}

	low := Paginate(processes, -3, domain.PageSizeOf(25))
	if low.CurrentPage != 1 || len(low.Items) != 25 {
		t.Fatalf("expected clamp to page 1 with 25 items, got page=%d items=%d", low.CurrentPage, len(low.Items))
	}
}

func TestPaginateAllSuppressesControls(t *testing.T) {
	page := Paginate(inventoryFixture(), 3, domain.PageSizeAll())
	if len(page.Items) != 98 {
		t.Fatalf("expected all 98 items, got %d", len(page.Items))
	}
	if page.ShowControls || len(page.PageButtons) != 0 {
		t.Fatalf("expected no page controls for all, got show=%v buttons=%v", page.ShowControls, page.PageButtons)
	}
	if page.CurrentPage != 1 {
		t.Fatalf("expected current page 1, got %d", page.CurrentPage)
	}
}

func TestPaginateEmptyInput(t *testing.T) {
	page := Paginate(nil, 5, domain.PageSizeOf(25))
	if page.CurrentPage != 1 || page.TotalPages != 0 || len(page.Items) != 0 {
		t.Fatalf("unexpected empty page %+v", page)
	}
	if page.Label() != "Showing 0–0 of 0" {
		t.Fatalf("unexpected label %q", page.Label())
	}
	if page.ShowControls {
		t.Fatalf("empty page must not show controls")
	}
}

func TestPaginateInvalidSizeFallsBackToDefault(t *testing.T) {
	page := Paginate(inventoryFixture(), 1, domain.PageSize{})
	if page.ItemsPerPage.N != domain.DefaultItemsPerPage || len(page.Items) != domain.DefaultItemsPerPage {
		t.Fatalf("expected default page size, got %+v with %d items", page.ItemsPerPage, len(page.Items))
	}
}
