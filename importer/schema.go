package importer

import "strings"

// Field is a canonical import column.
type Field string

const (
	FieldTitle           Field = "title"
	FieldShortDesc       Field = "short_desc"
	FieldFullDescription Field = "full_description"
	FieldPrice           Field = "price"
	FieldCurrency        Field = "currency"
	FieldStockQty        Field = "stock_qty"
	FieldSKU             Field = "sku"
	FieldCategory        Field = "category"
	FieldTags            Field = "tags"
	FieldMainImageURL    Field = "main_image_url"
	FieldStatus          Field = "status"
)

// TargetSchema lists every canonical field in template order.
var TargetSchema = []Field{
	FieldTitle,
	FieldShortDesc,
	FieldFullDescription,
	FieldPrice,
	FieldCurrency,
	FieldStockQty,
	FieldSKU,
	FieldCategory,
	FieldTags,
	FieldMainImageURL,
	FieldStatus,
}

// TemplateHeaders are the column titles of the downloadable template.
var TemplateHeaders = []string{
	"Title",
	"Short_Desc",
	"Full_Description",
	"Price",
	"Currency",
	"Stock_Qty",
	"SKU",
	"Category",
	"Tags",
	"Main_Image_URL",
	"Status",
}

const TemplateFileName = "vcnty_items_template.csv"

// headerAliases maps normalized header spellings to canonical fields. It is
// only consulted when a header does not normalize to a canonical key.
var headerAliases = map[string]Field{
	"itemname":    FieldTitle,
	"productname": FieldTitle,
	"name":        FieldTitle,

	"shortdescription": FieldShortDesc,
	"shortdesc":        FieldShortDesc,
	"summary":          FieldShortDesc,

	"productdescription": FieldFullDescription,
	"description":        FieldFullDescription,
	"longdescription":    FieldFullDescription,
	"fulldescription":    FieldFullDescription,

	"cost":   FieldPrice,
	"amount": FieldPrice,

	"stock":    FieldStockQty,
	"quantity": FieldStockQty,
	"qty":      FieldStockQty,
	"stockqty": FieldStockQty,

	"image":        FieldMainImageURL,
	"imageurl":     FieldMainImageURL,
	"mainimageurl": FieldMainImageURL,
	"photo":        FieldMainImageURL,
}

var canonicalByNormalized = func() map[string]Field {
	out := make(map[string]Field, len(TargetSchema))
	for _, field := range TargetSchema {
		out[normalizeHeader(string(field))] = field
	}
	return out
}()

// LookupField resolves a single header. Exact canonical matches take
// precedence over the alias table.
func LookupField(header string) (Field, bool) {
	normalized := normalizeHeader(header)
	if normalized == "" {
		return "", false
	}
	if field, ok := canonicalByNormalized[normalized]; ok {
		return field, true
	}
	field, ok := headerAliases[normalized]
	return field, ok
}

// HeaderMapping is the resolved column layout of one file.
type HeaderMapping struct {
	Headers []string
	Fields  map[string]Field
	Ignored []string
}

func MapHeaders(headers []string) HeaderMapping {
	mapping := HeaderMapping{
		Headers: headers,
		Fields:  make(map[string]Field, len(headers)),
		Ignored: make([]string, 0),
	}
	for _, header := range headers {
		field, ok := LookupField(header)
		if !ok {
			if strings.TrimSpace(header) != "" {
				mapping.Ignored = append(mapping.Ignored, header)
			}
			continue
		}
		mapping.Fields[header] = field
	}
	return mapping
}

// Apply copies mapped values into a NormalizedRow. When several headers map
// to the same field the last one wins.
func (m HeaderMapping) Apply(row RawRow) NormalizedRow {
	out := make(NormalizedRow, len(m.Fields))
	for _, header := range m.Headers {
		field, ok := m.Fields[header]
		if !ok {
			continue
		}
		out[field] = row.Get(header)
	}
	return out
}

// ReconcileHeaders maps every row onto the target schema using the headers of
// the first row.
func ReconcileHeaders(rows []RawRow) []NormalizedRow {
	if len(rows) == 0 {
		return []NormalizedRow{}
	}
	mapping := MapHeaders(rows[0].Headers)
	out := make([]NormalizedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapping.Apply(row))
	}
	return out
}
