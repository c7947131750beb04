package vcntyapi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"vcnty/inventory"
)

type fakeItemLister struct {
	items []inventory.Item
	pages []Page
	err   error
}

func (f *fakeItemLister) ListStoreItems(_ context.Context, _ string, page Page) (ItemPage, error) {
	f.pages = append(f.pages, page)
	if f.err != nil {
		return ItemPage{}, f.err
	}
	end := page.Offset + page.Limit
	if end > len(f.items) {
		end = len(f.items)
	}
	if page.Offset >= len(f.items) {
		return ItemPage{Items: nil, Total: len(f.items)}, nil
	}
	return ItemPage{Items: f.items[page.Offset:end], Total: len(f.items)}, nil
}

func TestCollectStoreItems_PagesUntilTotal(t *testing.T) {
	t.Parallel()

	lister := &fakeItemLister{}
	for i := 0; i < 5; i++ {
		lister.items = append(lister.items, inventory.Item{ID: fmt.Sprintf("i%d", i)})
	}

	items, err := CollectStoreItems(context.Background(), lister, "store-1", 2)
	if err != nil {
		t.Fatalf("collect items: %v", err)
	}
	if len(items) != 5 || items[4].ID != "i4" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if len(lister.pages) != 3 || lister.pages[2].Offset != 4 {
		t.Fatalf("unexpected page requests: %+v", lister.pages)
	}
}

func TestCollectStoreItems_StopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	lister := &fakeItemLister{}
	items, err := CollectStoreItems(context.Background(), lister, "store-1", 50)
	if err != nil {
		t.Fatalf("collect items: %v", err)
	}
	if len(items) != 0 || len(lister.pages) != 1 {
		t.Fatalf("expected a single empty page, got items=%d pages=%d", len(items), len(lister.pages))
	}
}

func TestCollectStoreItems_WrapsError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := CollectStoreItems(context.Background(), &fakeItemLister{err: boom}, "store-1", 50)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestFindStoreItem(t *testing.T) {
	t.Parallel()

	lister := &fakeItemLister{items: []inventory.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	item, found, err := FindStoreItem(context.Background(), lister, "store-1", " c ", 2)
	if err != nil || !found || item.ID != "c" {
		t.Fatalf("expected item c, got %+v found=%v err=%v", item, found, err)
	}
	if _, found, err := FindStoreItem(context.Background(), lister, "store-1", "z", 2); err != nil || found {
		t.Fatalf("expected missing item, got found=%v err=%v", found, err)
	}
}
