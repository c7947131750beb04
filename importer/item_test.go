package importer

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"vcnty/inventory"
)

func TestValidateItem(t *testing.T) {
	t.Parallel()

	item, err := ValidateItem(NormalizedRow{
		FieldTitle:    " Lamp ",
		FieldPrice:    "$12.50",
		FieldCategory: "Home",
		FieldStatus:   inventory.StatusDraft,
	}, testDefaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Title != "Lamp" || item.Price != 12.5 || item.Status != inventory.StatusDraft || item.Latitude != 52.52 {
		t.Fatalf("unexpected item: %+v", item)
	}

	_, err = ValidateItem(NormalizedRow{FieldPrice: "USD -5", FieldCategory: "Home"}, testDefaults)
	if !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected invalid item error, got %v", err)
	}
	if strings.Contains(err.Error(), "Row 1") {
		t.Fatalf("single item errors must not carry a row prefix: %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid price format. Missing Title.") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestEditItem(t *testing.T) {
	t.Parallel()

	existing := inventory.Item{
		ID:        "item-1",
		Title:     "Lamp",
		Price:     12.5,
		Currency:  "USD",
		Quantity:  4,
		Category:  "Home",
		Tags:      []string{"light", "desk"},
		Status:    inventory.StatusAvailable,
		Images:    []string{"https://cdn.example/a.png", "https://cdn.example/b.png"},
		Latitude:  1.5,
		Longitude: 2.5,
	}

	edited, err := EditItem(existing, NormalizedRow{FieldPrice: "15", FieldStockQty: "0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := existing
	want.Price = 15
	want.Quantity = 0
	if !reflect.DeepEqual(edited, want) {
		t.Fatalf("unexpected edit:\n got %+v\nwant %+v", edited, want)
	}

	replaced, err := EditItem(existing, NormalizedRow{FieldMainImageURL: "https://cdn.example/c.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(replaced.Images, []string{"https://cdn.example/c.png", "https://cdn.example/b.png"}) {
		t.Fatalf("unexpected images: %v", replaced.Images)
	}

	if _, err := EditItem(existing, NormalizedRow{FieldTitle: "  "}); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected invalid item error for blank title, got %v", err)
	}
	if _, err := EditItem(existing, NormalizedRow{FieldMainImageURL: "http://insecure"}); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected invalid item error for insecure image, got %v", err)
	}
}
