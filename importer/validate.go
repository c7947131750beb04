package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vcnty/inventory"
)

// RowDefaults carries values every imported item inherits.
type RowDefaults struct {
	Location inventory.Location
	Currency string
}

// ValidateRow converts one normalized row into an item. The row is accepted
// only when the returned error list is empty; the item always carries safe
// defaults so callers can inspect it either way.
func ValidateRow(row NormalizedRow, index int, defaults RowDefaults) (inventory.Item, []string) {
	rowErrors := make([]string, 0)

	price, ok := parsePrice(row.Get(FieldPrice))
	if !ok {
		rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Invalid price format.", index))
		price = 0
	}

	stock := parseStock(row.Get(FieldStockQty))

	imageURL := Sanitize(row.Get(FieldMainImageURL))
	if imageURL != "" && !strings.HasPrefix(strings.ToLower(imageURL), "https://") {
		rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Image URL must be secure (https://).", index))
	}

	title := Sanitize(row.Get(FieldTitle))
	if title == "" {
		rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Missing Title.", index))
	}

	category := Sanitize(row.Get(FieldCategory))
	if category == "" {
		rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Missing Category.", index))
	}

	currency := defaults.Currency
	if currency == "" {
		currency = inventory.DefaultCurrency
	}
	if raw := row.Get(FieldCurrency); strings.TrimSpace(raw) != "" {
		currency = Sanitize(raw)
	}

	images := make([]string, 0, 1)
	if imageURL != "" {
		images = append(images, imageURL)
	}

	item := inventory.Item{
		Title:            title,
		Description:      Sanitize(row.Get(FieldFullDescription)),
		ShortDescription: Sanitize(row.Get(FieldShortDesc)),
		SKU:              Sanitize(row.Get(FieldSKU)),
		Price:            price,
		Currency:         currency,
		Quantity:         stock,
		Category:         category,
		Tags:             splitTags(row.Get(FieldTags)),
		Status:           normalizeStatus(row.Get(FieldStatus)),
		Images:           images,
		Latitude:         defaults.Location.Latitude,
		Longitude:        defaults.Location.Longitude,
	}
	return item, rowErrors
}

// parsePrice reports false for values that are present but unusable. Currency
// symbols and other noise are dropped. A minus sign anywhere before the number
// rejects the value. Trailing garbage after the first number is ignored.
func parsePrice(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, true
	}

	cleaned := keepChars(trimmed, isPriceChar)
	if strings.HasPrefix(cleaned, "-") {
		return 0, false
	}
	number := leadingNumber(cleaned)
	if number == "" {
		return 0, false
	}
	if strings.HasPrefix(number, ".") {
		number = "0" + number
	}
	value, err := decimal.NewFromString(strings.TrimSuffix(number, "."))
	if err != nil {
		return 0, false
	}
	return value.InexactFloat64(), true
}

func parseStock(raw string) int {
	digits := keepChars(raw, isDigit)
	if digits == "" {
		return 0
	}
	stock, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return stock
}

func splitTags(raw string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func normalizeStatus(raw string) string {
	status := strings.TrimSpace(raw)
	switch {
	case status == "":
		return inventory.StatusAvailable
	case strings.EqualFold(status, "published"):
		return inventory.StatusAvailable
	default:
		return strings.ToUpper(status)
	}
}
