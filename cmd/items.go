package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"vcnty/config"
	"vcnty/importer"
	"vcnty/inventory"
	"vcnty/vcntyapi"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	itemsStoreID string
	itemsLimit   int
	itemsOffset  int
	itemsIDs     []string
)

// itemFieldFlags binds one flag per template column for items create/update.
var itemFieldFlags = []struct {
	name  string
	field importer.Field
	usage string
}{
	{"title", importer.FieldTitle, "Item title"},
	{"short", importer.FieldShortDesc, "Short description"},
	{"description", importer.FieldFullDescription, "Full description"},
	{"price", importer.FieldPrice, "Price, e.g. 12.50"},
	{"currency", importer.FieldCurrency, "Currency code (default from config)"},
	{"qty", importer.FieldStockQty, "Stock quantity"},
	{"sku", importer.FieldSKU, "SKU"},
	{"category", importer.FieldCategory, "Category"},
	{"tags", importer.FieldTags, "Comma separated tags"},
	{"image", importer.FieldMainImageURL, "Main image URL (https only)"},
	{"status", importer.FieldStatus, "AVAILABLE, DRAFT or SOLD_OUT (default depends on store status)"},
}

var itemFieldValues = make(map[importer.Field]*string, len(itemFieldFlags))

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List, create, update or delete items of a store",
	Example: `
  # List the first page of items
  vcnty items list --store 4f1c

  # Create one item using the import validation rules
  vcnty items create --store 4f1c --title "Desk lamp" --price 24.90 --category Home --qty 3

  # Change price and stock of an item
  vcnty items update 91aa --store 4f1c --price 19.90 --qty 0

  # Delete two items (requires interactive confirmation)
  vcnty items delete --id 91aa --id 91ab
`,
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items of a store",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCommandClient("vcnty-items/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		page, err := client.ListStoreItems(ctx, itemsStoreID, vcntyapi.Page{Limit: itemsLimit, Offset: itemsOffset})
		if err != nil {
			return err
		}
		printItemList(cmd.OutOrStdout(), page)
		return nil
	},
}

var itemsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create one item in a store",
	Long: `Create a single item. Values go through the same sanitizing and validation as
imported rows; the item inherits the store's map location.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		client, err := newBackendClient(cfg, "vcnty-items/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		fields := changedItemFields(cmd.Flags().Changed)
		created, err := createStoreItem(ctx, client, itemsStoreID, fields, cfg.Import.DefaultCurrency)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created item %s: %s (%s)\n", created.ID, created.Title, formatItemPrice(created))
		return nil
	},
}

var itemsUpdateCmd = &cobra.Command{
	Use:   "update <item-id>",
	Short: "Update fields of one item",
	Long: `Update the given fields of an item. Fields without a flag keep their current
value; the result is validated like an imported row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCommandClient("vcnty-items/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		changes := changedItemFields(cmd.Flags().Changed)
		updated, err := updateStoreItem(ctx, client, itemsStoreID, args[0], changes)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated item %s: %s (%s, qty %d, %s)\n",
			updated.ID, updated.Title, formatItemPrice(updated), updated.Quantity, updated.Status)
		return nil
	},
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete items by ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := cleanIDs(itemsIDs)
		if len(ids) == 0 {
			return fmt.Errorf("at least one --id is required")
		}
		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, fmt.Sprintf("%d item(s)", len(ids)))
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		client, err := newCommandClient("vcnty-items/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := deleteItems(ctx, client, ids); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted items: %d\n", len(ids))
		return nil
	},
}

type itemEditor interface {
	vcntyapi.ItemLister
	GetStore(ctx context.Context, storeID string) (inventory.Store, error)
	CreateItem(ctx context.Context, storeID string, item inventory.Item) (inventory.Item, error)
	UpdateItem(ctx context.Context, item inventory.Item) (inventory.Item, error)
}

type itemDeleter interface {
	DeleteItem(ctx context.Context, itemID string) error
	DeleteItemsBatch(ctx context.Context, ids []string) error
}

func changedItemFields(changed func(name string) bool) importer.NormalizedRow {
	row := make(importer.NormalizedRow)
	for _, flag := range itemFieldFlags {
		if changed(flag.name) {
			row[flag.field] = *itemFieldValues[flag.field]
		}
	}
	return row
}

// createStoreItem validates fields with the import rules, using the store's
// location and default item status, then creates the item.
func createStoreItem(ctx context.Context, client itemEditor, storeID string, fields importer.NormalizedRow, defaultCurrency string) (inventory.Item, error) {
	store, err := client.GetStore(ctx, storeID)
	if err != nil {
		return inventory.Item{}, fmt.Errorf("load store %s: %w", storeID, err)
	}
	row := make(importer.NormalizedRow, len(fields)+1)
	for field, value := range fields {
		row[field] = value
	}
	if strings.TrimSpace(row.Get(importer.FieldStatus)) == "" {
		row[importer.FieldStatus] = store.DefaultItemStatus()
	}

	item, err := importer.ValidateItem(row, importer.RowDefaults{Location: store.Location(), Currency: defaultCurrency})
	if err != nil {
		return inventory.Item{}, err
	}
	return client.CreateItem(ctx, store.ID, item)
}

// updateStoreItem looks the item up in its store listing, applies changes and
// saves the full item.
func updateStoreItem(ctx context.Context, client itemEditor, storeID, itemID string, changes importer.NormalizedRow) (inventory.Item, error) {
	if len(changes) == 0 {
		return inventory.Item{}, fmt.Errorf("nothing to update: pass at least one field flag")
	}
	existing, found, err := vcntyapi.FindStoreItem(ctx, client, storeID, itemID, exportPageSize)
	if err != nil {
		return inventory.Item{}, err
	}
	if !found {
		return inventory.Item{}, fmt.Errorf("item %s not found in store %s", strings.TrimSpace(itemID), storeID)
	}
	edited, err := importer.EditItem(existing, changes)
	if err != nil {
		return inventory.Item{}, err
	}
	return client.UpdateItem(ctx, edited)
}

// deleteItems uses the single-item endpoint for one ID and the batch endpoint
// otherwise.
func deleteItems(ctx context.Context, client itemDeleter, ids []string) error {
	if len(ids) == 1 {
		return client.DeleteItem(ctx, ids[0])
	}
	return client.DeleteItemsBatch(ctx, ids)
}

func cleanIDs(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		for _, id := range strings.Split(value, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, exists := seen[id]; exists {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func printItemList(out io.Writer, page vcntyapi.ItemPage) {
	if len(page.Items) == 0 {
		fmt.Fprintln(out, "No items found.")
		return
	}
	fmt.Fprintf(out, "%-36s  %12s  %5s  %-10s  %s\n", "ID", "PRICE", "QTY", "STATUS", "TITLE")
	for _, item := range page.Items {
		fmt.Fprintf(out, "%-36s  %12s  %5d  %-10s  %s\n", item.ID, formatItemPrice(item), item.Quantity, item.Status, item.Title)
	}
	fmt.Fprintf(out, "Showing %d of %d items.\n", len(page.Items), page.Total)
}

func formatItemPrice(item inventory.Item) string {
	return decimal.NewFromFloat(item.Price).StringFixed(2) + " " + item.Currency
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsCreateCmd)
	itemsCmd.AddCommand(itemsUpdateCmd)
	itemsCmd.AddCommand(itemsDeleteCmd)

	itemsListCmd.Flags().StringVarP(&itemsStoreID, "store", "s", "", "Store ID")
	itemsListCmd.Flags().IntVar(&itemsLimit, "limit", 50, "Page size")
	itemsListCmd.Flags().IntVar(&itemsOffset, "offset", 0, "Page offset")
	_ = itemsListCmd.MarkFlagRequired("store")

	for _, editCmd := range []*cobra.Command{itemsCreateCmd, itemsUpdateCmd} {
		editCmd.Flags().StringVarP(&itemsStoreID, "store", "s", "", "Store ID")
		_ = editCmd.MarkFlagRequired("store")
	}
	for _, flag := range itemFieldFlags {
		value := new(string)
		itemFieldValues[flag.field] = value
		itemsCreateCmd.Flags().StringVar(value, flag.name, "", flag.usage)
		itemsUpdateCmd.Flags().StringVar(value, flag.name, "", flag.usage)
	}

	itemsDeleteCmd.Flags().StringArrayVar(&itemsIDs, "id", nil, "Item ID to delete (repeatable, comma separated allowed)")
}
