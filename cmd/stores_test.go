package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"vcnty/inventory"
	"vcnty/vcntyapi"
)

func TestPrintStoreList(t *testing.T) {
	t.Parallel()

	var empty bytes.Buffer
	printStoreList(&empty, vcntyapi.StorePage{})
	if !strings.Contains(empty.String(), "No stores found.") {
		t.Fatalf("unexpected empty output: %q", empty.String())
	}

	var out bytes.Buffer
	printStoreList(&out, vcntyapi.StorePage{
		Items: []inventory.Store{
			{ID: "store-1", Name: "Corner Shop", Status: inventory.StoreStatusPublished},
			{ID: "store-2", Name: "Pop-up"},
		},
		Total: 2,
	})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, 2 rows and footer:\n%s", out.String())
	}
	if !strings.Contains(lines[1], "PUBLISHED") || !strings.HasSuffix(lines[1], "Corner Shop") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "  -  ") {
		t.Fatalf("expected dash for missing status: %q", lines[2])
	}
}

type fakeStoreStatusClient struct {
	store   inventory.Store
	updates []string
}

func (f *fakeStoreStatusClient) GetStore(context.Context, string) (inventory.Store, error) {
	return f.store, nil
}

func (f *fakeStoreStatusClient) SetStoreStatus(_ context.Context, storeID, status string) (inventory.Store, error) {
	f.updates = append(f.updates, storeID+":"+status)
	return inventory.Store{ID: storeID, Status: status}, nil
}

func TestApplyStoreStatus(t *testing.T) {
	t.Parallel()

	client := &fakeStoreStatusClient{store: inventory.Store{ID: "store-1", Name: "Corner Shop", Status: inventory.StoreStatusDraft}}

	updated, changed, err := applyStoreStatus(context.Background(), client, "store-1", "publish")
	if err != nil {
		t.Fatalf("apply status: %v", err)
	}
	if !changed || !updated.IsPublished() || updated.Name != "Corner Shop" {
		t.Fatalf("unexpected result: %+v changed=%v", updated, changed)
	}

	_, changed, err = applyStoreStatus(context.Background(), client, "store-1", "draft")
	if err != nil {
		t.Fatalf("apply status: %v", err)
	}
	if changed {
		t.Fatalf("expected no change for a store that is already draft")
	}

	if _, _, err := applyStoreStatus(context.Background(), client, "store-1", "archived"); err == nil {
		t.Fatalf("expected unsupported status error")
	}
	if len(client.updates) != 1 || client.updates[0] != "store-1:PUBLISHED" {
		t.Fatalf("unexpected updates: %v", client.updates)
	}
}
