package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"vcnty/internal/orderflow"
	"vcnty/internal/timeutil"
	"vcnty/vcntyapi"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	ordersPending      bool
	ordersStatusReason string
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List seller orders and update their status",
	Example: `
  # Orders that still need action
  vcnty orders list --pending

  # Mark an order as shipped
  vcnty orders status 77c0 shipped

  # Cancel an order with a reason
  vcnty orders status 77c0 cancelled --reason "Out of stock"
`,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List seller orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCommandClient("vcnty-orders/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		orders, err := client.ListSellerOrders(ctx)
		if err != nil {
			return err
		}
		if ordersPending {
			orders = orderflow.Split(orders).Pending
		}
		printOrderList(cmd.OutOrStdout(), orders)
		return nil
	},
}

var ordersStatusCmd = &cobra.Command{
	Use:   "status <order-id> <shipped|delivered|cancelled>",
	Short: "Move an order to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newCommandClient("vcnty-orders/1.0")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		updated, previous, err := applyOrderStatus(ctx, client, args[0], args[1], ordersStatusReason)
		if err != nil {
			return err
		}
		fmt.Printf("Order %s: %s -> %s\n", updated.ID, previous, updated.Status)
		return nil
	},
}

type orderStatusClient interface {
	ListSellerOrders(ctx context.Context) ([]vcntyapi.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status, reason string) (vcntyapi.Order, error)
}

// applyOrderStatus validates the transition against the current status before
// calling the backend. It returns the updated order and the previous status.
func applyOrderStatus(ctx context.Context, client orderStatusClient, orderID, status, reason string) (vcntyapi.Order, string, error) {
	orderID = strings.TrimSpace(orderID)
	orders, err := client.ListSellerOrders(ctx)
	if err != nil {
		return vcntyapi.Order{}, "", err
	}

	var current *vcntyapi.Order
	for i := range orders {
		if orders[i].ID == orderID {
			current = &orders[i]
			break
		}
	}
	if current == nil {
		return vcntyapi.Order{}, "", fmt.Errorf("order %s not found", orderID)
	}

	target, err := orderflow.ValidateTransition(current.Status, status)
	if err != nil {
		return vcntyapi.Order{}, "", fmt.Errorf("order %s: %w", orderID, err)
	}
	updated, err := client.UpdateOrderStatus(ctx, orderID, target, strings.TrimSpace(reason))
	if err != nil {
		return vcntyapi.Order{}, "", err
	}
	return updated, orderflow.NormalizeStatus(current.Status), nil
}

func printOrderList(out io.Writer, orders []vcntyapi.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders found.")
		return
	}
	fmt.Fprintf(out, "%-36s  %-19s  %-10s  %14s  %5s\n", "ID", "CREATED", "STATUS", "TOTAL", "ITEMS")
	for _, order := range orders {
		count := 0
		for _, line := range order.Items {
			count += line.Quantity
		}
		total := decimal.NewFromFloat(order.TotalAmount).StringFixed(2) + " " + order.Currency
		fmt.Fprintf(out, "%-36s  %-19s  %-10s  %14s  %5d\n",
			order.ID,
			timeutil.FormatTimestamp(order.CreatedAt),
			orderflow.NormalizeStatus(order.Status),
			total,
			count,
		)
	}
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersStatusCmd)

	ordersListCmd.Flags().BoolVar(&ordersPending, "pending", false, "Only orders that still need action")
	ordersStatusCmd.Flags().StringVar(&ordersStatusReason, "reason", "", "Optional reason, sent with cancellations")
}
