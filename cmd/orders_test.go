package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vcnty/internal/orderflow"
	"vcnty/vcntyapi"
)

type fakeOrderClient struct {
	orders  []vcntyapi.Order
	updates []string
}

func (f *fakeOrderClient) ListSellerOrders(context.Context) ([]vcntyapi.Order, error) {
	return f.orders, nil
}

func (f *fakeOrderClient) UpdateOrderStatus(_ context.Context, orderID, status, reason string) (vcntyapi.Order, error) {
	f.updates = append(f.updates, orderID+":"+status+":"+reason)
	return vcntyapi.Order{ID: orderID, Status: status}, nil
}

func TestApplyOrderStatus(t *testing.T) {
	t.Parallel()

	client := &fakeOrderClient{orders: []vcntyapi.Order{
		{ID: "o1", Status: "pending"},
		{ID: "o2", Status: "DELIVERED"},
	}}

	updated, previous, err := applyOrderStatus(context.Background(), client, " o1 ", "cancelled", " Out of stock ")
	if err != nil {
		t.Fatalf("apply status: %v", err)
	}
	if updated.Status != orderflow.StatusCancelled || previous != orderflow.StatusPending {
		t.Fatalf("unexpected result: %+v previous=%q", updated, previous)
	}
	if len(client.updates) != 1 || client.updates[0] != "o1:CANCELLED:Out of stock" {
		t.Fatalf("unexpected updates: %v", client.updates)
	}

	if _, _, err := applyOrderStatus(context.Background(), client, "o2", "shipped", ""); !errors.Is(err, orderflow.ErrOrderClosed) {
		t.Fatalf("expected closed order error, got %v", err)
	}
	if _, _, err := applyOrderStatus(context.Background(), client, "o1", "pending", ""); !errors.Is(err, orderflow.ErrUnsupportedStatus) {
		t.Fatalf("expected unsupported status error, got %v", err)
	}
	if _, _, err := applyOrderStatus(context.Background(), client, "missing", "shipped", ""); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if len(client.updates) != 1 {
		t.Fatalf("rejected transitions must not reach the backend: %v", client.updates)
	}
}

func TestPrintOrderList(t *testing.T) {
	t.Parallel()

	var empty bytes.Buffer
	printOrderList(&empty, nil)
	if !strings.Contains(empty.String(), "No orders found.") {
		t.Fatalf("unexpected empty output: %q", empty.String())
	}

	var out bytes.Buffer
	printOrderList(&out, []vcntyapi.Order{{
		ID:          "o1",
		Status:      "shipped",
		TotalAmount: 19.5,
		Currency:    "EUR",
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Items:       []vcntyapi.OrderLine{{Quantity: 2}, {Quantity: 1}},
	}})
	text := out.String()
	if !strings.Contains(text, "SHIPPED") || !strings.Contains(text, "19.50 EUR") || !strings.HasSuffix(strings.TrimSpace(text), "3") {
		t.Fatalf("unexpected output:\n%s", text)
	}
}
