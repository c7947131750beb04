package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vcnty/inventory"
)

// ErrInvalidItem wraps the validation messages of a single item.
var ErrInvalidItem = errors.New("invalid item")

// ValidateItem applies the import row rules to a single item entered outside
// a file.
func ValidateItem(row NormalizedRow, defaults RowDefaults) (inventory.Item, error) {
	item, rowErrors := ValidateRow(row, 1, defaults)
	if len(rowErrors) == 0 {
		return item, nil
	}
	messages := make([]string, 0, len(rowErrors))
	for _, message := range rowErrors {
		messages = append(messages, strings.TrimPrefix(message, "Row 1: "))
	}
	return inventory.Item{}, fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(messages, " "))
}

// RowFromItem renders an item back into template fields.
func RowFromItem(item inventory.Item) NormalizedRow {
	row := NormalizedRow{
		FieldTitle:           item.Title,
		FieldShortDesc:       item.ShortDescription,
		FieldFullDescription: item.Description,
		FieldPrice:           decimal.NewFromFloat(item.Price).String(),
		FieldCurrency:        item.Currency,
		FieldStockQty:        strconv.Itoa(item.Quantity),
		FieldSKU:             item.SKU,
		FieldCategory:        item.Category,
		FieldTags:            strings.Join(item.Tags, ", "),
		FieldStatus:          item.Status,
	}
	if len(item.Images) > 0 {
		row[FieldMainImageURL] = item.Images[0]
	}
	return row
}

// EditItem overlays changes onto item and validates the result. The item keeps
// its ID, its location and any images after the main one.
func EditItem(item inventory.Item, changes NormalizedRow) (inventory.Item, error) {
	row := RowFromItem(item)
	for field, value := range changes {
		row[field] = value
	}
	defaults := RowDefaults{
		Location: inventory.Location{Latitude: item.Latitude, Longitude: item.Longitude},
		Currency: item.Currency,
	}
	edited, err := ValidateItem(row, defaults)
	if err != nil {
		return inventory.Item{}, err
	}
	edited.ID = item.ID
	if len(item.Images) > 1 {
		edited.Images = append(edited.Images, item.Images[1:]...)
	}
	return edited, nil
}
