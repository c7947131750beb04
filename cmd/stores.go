package cmd

import (
	"context"
	"fmt"
	"io"

	"vcnty/config"
	"vcnty/inventory"
	"vcnty/vcntyapi"

	"github.com/spf13/cobra"
)

var (
	storesLimit  int
	storesOffset int
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List and manage the stores of the logged-in seller",
	Example: `
  # List stores
  vcnty stores list

  # Show one store with its map location
  vcnty stores show 4f1c

  # Make a store visible to buyers, or hide it again
  vcnty stores publish 4f1c
  vcnty stores unpublish 4f1c

  # Delete a store (requires interactive confirmation)
  vcnty stores delete 4f1c
`,
}

var storesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCommandClient("vcnty-stores/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		page, err := client.ListStores(ctx, vcntyapi.Page{Limit: storesLimit, Offset: storesOffset})
		if err != nil {
			return err
		}
		printStoreList(cmd.OutOrStdout(), page)
		return nil
	},
}

var storesShowCmd = &cobra.Command{
	Use:   "show <store-id>",
	Short: "Show one store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCommandClient("vcnty-stores/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		store, err := client.GetStore(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:       %s\n", store.ID)
		fmt.Fprintf(out, "Name:     %s\n", store.Name)
		fmt.Fprintf(out, "Status:   %s\n", store.Status)
		fmt.Fprintf(out, "Location: %.6f, %.6f\n", store.Latitude, store.Longitude)
		if store.Description != "" {
			fmt.Fprintf(out, "About:    %s\n", store.Description)
		}
		return nil
	},
}

var storesPublishCmd = &cobra.Command{
	Use:   "publish <store-id>",
	Short: "Publish a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStoreStatus(cmd.OutOrStdout(), args[0], inventory.StoreStatusPublished)
	},
}

var storesUnpublishCmd = &cobra.Command{
	Use:   "unpublish <store-id>",
	Short: "Move a store back to draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStoreStatus(cmd.OutOrStdout(), args[0], inventory.StoreStatusDraft)
	},
}

var storesDeleteCmd = &cobra.Command{
	Use:   "delete <store-id>",
	Short: "Delete a store",
	Long: `Delete a store on the backend.

Before deletion, an interactive security prompt requires typing exactly "Y".
The local import history of the store is kept; remove it with "history clear --store".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCommandClient("vcnty-stores/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		store, err := client.GetStore(ctx, args[0])
		if err != nil {
			return err
		}
		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, fmt.Sprintf("store %q (id=%s)", store.Name, store.ID))
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}
		if err := client.DeleteStore(ctx, store.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted store: %s\n", store.Name)
		return nil
	},
}

type storeStatusClient interface {
	GetStore(ctx context.Context, storeID string) (inventory.Store, error)
	SetStoreStatus(ctx context.Context, storeID, status string) (inventory.Store, error)
}

func runStoreStatus(out io.Writer, storeID, status string) error {
	client, err := newCommandClient("vcnty-stores/1.0")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	store, changed, err := applyStoreStatus(ctx, client, storeID, status)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(out, "Store %s is already %s.\n", store.Name, store.Status)
		return nil
	}
	fmt.Fprintf(out, "Store %s is now %s.\n", store.Name, store.Status)
	return nil
}

// applyStoreStatus sets the store status unless the store already has it.
func applyStoreStatus(ctx context.Context, client storeStatusClient, storeID, status string) (inventory.Store, bool, error) {
	target, ok := inventory.NormalizeStoreStatus(status)
	if !ok {
		return inventory.Store{}, false, fmt.Errorf("unsupported store status %q", status)
	}
	current, err := client.GetStore(ctx, storeID)
	if err != nil {
		return inventory.Store{}, false, err
	}
	if current.Status == target {
		return current, false, nil
	}
	updated, err := client.SetStoreStatus(ctx, current.ID, target)
	if err != nil {
		return inventory.Store{}, false, err
	}
	if updated.Name == "" {
		updated.Name = current.Name
	}
	return updated, true, nil
}

// newCommandClient loads the config and builds an authenticated client.
func newCommandClient(userAgent string) (*vcntyapi.HTTPClient, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, err
	}
	return newBackendClient(cfg, userAgent)
}

func printStoreList(out io.Writer, page vcntyapi.StorePage) {
	if len(page.Items) == 0 {
		fmt.Fprintln(out, "No stores found.")
		return
	}
	fmt.Fprintf(out, "%-36s  %-10s  %s\n", "ID", "STATUS", "NAME")
	for _, store := range page.Items {
		fmt.Fprintf(out, "%-36s  %-10s  %s\n", store.ID, storeStatusLabel(store), store.Name)
	}
	fmt.Fprintf(out, "Showing %d of %d stores.\n", len(page.Items), page.Total)
}

func storeStatusLabel(store inventory.Store) string {
	if store.Status == "" {
		return "-"
	}
	return store.Status
}

func init() {
	rootCmd.AddCommand(storesCmd)
	storesCmd.AddCommand(storesListCmd)
	storesCmd.AddCommand(storesShowCmd)
	storesCmd.AddCommand(storesPublishCmd)
	storesCmd.AddCommand(storesUnpublishCmd)
	storesCmd.AddCommand(storesDeleteCmd)

	storesListCmd.Flags().IntVar(&storesLimit, "limit", 50, "Page size")
	storesListCmd.Flags().IntVar(&storesOffset, "offset", 0, "Page offset")
}
