package output

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vcnty/importer"
	"vcnty/inventory"
)

var reportHeaders = []string{"Metric", "Value"}

func reportRows(report importer.Report) [][]string {
	rows := [][]string{
		{"Total", strconv.Itoa(report.Total)},
		{"Success", strconv.Itoa(report.Success)},
		{"Failed", strconv.Itoa(report.Failed)},
		{"Submitted", strconv.FormatBool(report.Submitted)},
		{"DryRun", strconv.FormatBool(report.DryRun)},
	}
	if len(report.IgnoredColumns) > 0 {
		rows = append(rows, []string{"IgnoredColumns", strings.Join(report.IgnoredColumns, ", ")})
	}
	for _, message := range report.Errors {
		rows = append(rows, []string{"Error", message})
	}
	return rows
}

// itemRows lays items out in template column order so an export can be
// edited and imported again.
func itemRows(items []inventory.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		image := ""
		if len(item.Images) > 0 {
			image = item.Images[0]
		}
		rows = append(rows, []string{
			item.Title,
			item.ShortDescription,
			item.Description,
			decimal.NewFromFloat(item.Price).StringFixed(2),
			item.Currency,
			strconv.Itoa(item.Quantity),
			item.SKU,
			item.Category,
			strings.Join(item.Tags, ", "),
			image,
			item.Status,
		})
	}
	return rows
}
