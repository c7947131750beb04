package web

import (
	"sort"
	"time"

	"vcnty/importer"
	"vcnty/internal/orderflow"
	"vcnty/inventory"
	"vcnty/vcntyapi"
)

type StoreView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Published bool    `json:"published"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type OrderView struct {
	vcntyapi.Order
	Pending        bool     `json:"pending"`
	Closed         bool     `json:"closed"`
	AllowedTargets []string `json:"allowedTargets"`
	ItemCount      int      `json:"itemCount"`
}

type runView struct {
	ID         string          `json:"id"`
	StoreID    string          `json:"storeId"`
	FileName   string          `json:"fileName"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	DurationMs int64           `json:"durationMs"`
	Report     importer.Report `json:"report"`
}

type storesPageView struct {
	Title  string
	Stores []StoreView
	Total  int
}

type storePageView struct {
	Title       string
	Store       StoreView
	MaxFileSize int64
	Runs        []runView
}

// BuildStoreViews lists published stores first, then by name.
func BuildStoreViews(stores []inventory.Store) []StoreView {
	out := make([]StoreView, 0, len(stores))
	for _, store := range stores {
		out = append(out, StoreView{
			ID:        store.ID,
			Name:      store.Name,
			Status:    store.Status,
			Published: store.IsPublished(),
			Latitude:  store.Latitude,
			Longitude: store.Longitude,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Published != out[j].Published {
			return out[i].Published
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// BuildOrderViews annotates orders with the actions a seller can take,
// newest first.
func BuildOrderViews(orders []vcntyapi.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		count := 0
		for _, line := range order.Items {
			count += line.Quantity
		}
		out = append(out, OrderView{
			Order:          order,
			Pending:        orderflow.IsPending(order.Status),
			Closed:         orderflow.IsClosed(order.Status),
			AllowedTargets: orderflow.AllowedTargets(order.Status),
			ItemCount:      count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func BuildRunViews(runs []importer.Run) []runView {
	out := make([]runView, 0, len(runs))
	for _, run := range runs {
		out = append(out, runView{
			ID:         run.ID,
			StoreID:    run.StoreID,
			FileName:   run.FileName,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			DurationMs: run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
			Report:     run.Report,
		})
	}
	return out
}
