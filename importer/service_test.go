package importer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"vcnty/inventory"
)

type fakeBatchClient struct {
	calls   int
	storeID string
	items   []inventory.Item
	err     error
}

func (f *fakeBatchClient) CreateItemsBatch(_ context.Context, storeID string, items []inventory.Item) error {
	f.calls++
	f.storeID = storeID
	f.items = items
	return f.err
}

type fakeInvalidator struct {
	stores []string
}

func (f *fakeInvalidator) InvalidateStoreItems(storeID string) {
	f.stores = append(f.stores, storeID)
}

type fakeHistory struct {
	runs []Run
	err  error
}

func (f *fakeHistory) RecordImport(run Run) error {
	f.runs = append(f.runs, run)
	return f.err
}

var testStore = inventory.Store{
	ID:        "store-1",
	Name:      "Corner Shop",
	Status:    inventory.StoreStatusPublished,
	Latitude:  48.1,
	Longitude: 11.6,
}

const scenarioCSV = "Name, Cost, Stock, Category\nWidget,9.99,5,Home\n,3.00,2,Home\nGadget,-1,1,\n"

func newTestService(t *testing.T, client BatchCreator, invalidator Invalidator, history HistoryRecorder) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{Client: client, Invalidator: invalidator, History: history})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestImport_AliasScenario(t *testing.T) {
	t.Parallel()

	client := &fakeBatchClient{}
	invalidator := &fakeInvalidator{}
	history := &fakeHistory{}
	service := newTestService(t, client, invalidator, history)

	report, err := service.Import(context.Background(), Upload{Name: "items.csv", Body: strings.NewReader(scenarioCSV)}, testStore, Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if report.Total != 3 || report.Success != 1 || report.Failed != 2 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	wantErrors := []string{
		"Row 2: Missing Title.",
		"Row 3: Invalid price format.",
		"Row 3: Missing Category.",
	}
	if !reflect.DeepEqual(report.Errors, wantErrors) {
		t.Fatalf("unexpected errors:\n got %v\nwant %v", report.Errors, wantErrors)
	}
	if !report.Submitted || !report.Consistent() {
		t.Fatalf("expected a consistent submitted report: %+v", report)
	}

	if client.calls != 1 || client.storeID != "store-1" || len(client.items) != 1 {
		t.Fatalf("unexpected batch call: calls=%d store=%q items=%d", client.calls, client.storeID, len(client.items))
	}
	item := client.items[0]
	if item.Title != "Widget" || item.Price != 9.99 || item.Quantity != 5 || item.Category != "Home" {
		t.Fatalf("unexpected item: %#v", item)
	}
	if item.Latitude != 48.1 || item.Longitude != 11.6 {
		t.Fatalf("expected store coordinates, got %v/%v", item.Latitude, item.Longitude)
	}

	if !reflect.DeepEqual(invalidator.stores, []string{"store-1"}) {
		t.Fatalf("expected one invalidation, got %v", invalidator.stores)
	}
	if len(history.runs) != 1 || history.runs[0].ID == "" || history.runs[0].FileName != "items.csv" {
		t.Fatalf("unexpected history: %#v", history.runs)
	}
}

func TestImport_NetworkFailureFailsWholeFile(t *testing.T) {
	t.Parallel()

	client := &fakeBatchClient{err: errors.New("Store not found")}
	invalidator := &fakeInvalidator{}
	service := newTestService(t, client, invalidator, nil)

	report, err := service.Import(context.Background(), Upload{Name: "items.csv", Body: strings.NewReader(scenarioCSV)}, testStore, Options{})
	if err != nil {
		t.Fatalf("submission failures must be reported, not returned: %v", err)
	}
	if report.Success != 0 || report.Failed != 3 || report.Total != 3 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	last := report.Errors[len(report.Errors)-1]
	if last != "Network Error: Store not found" {
		t.Fatalf("unexpected last error: %q", last)
	}
	if len(report.Errors) != 4 {
		t.Fatalf("expected validation errors to be kept, got %v", report.Errors)
	}
	if len(invalidator.stores) != 0 {
		t.Fatalf("cache must not be invalidated on failure")
	}
}

func TestImport_NoValidRowsSkipsSubmission(t *testing.T) {
	t.Parallel()

	client := &fakeBatchClient{}
	service := newTestService(t, client, nil, nil)

	input := "Title,Price,Category\n,1,\n"
	report, err := service.Import(context.Background(), Upload{Name: "items.csv", Body: strings.NewReader(input)}, testStore, Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no batch call, got %d", client.calls)
	}
	if report.Submitted || report.Total != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestImport_DryRunValidatesOnly(t *testing.T) {
	t.Parallel()

	client := &fakeBatchClient{}
	service := newTestService(t, client, nil, nil)

	report, err := service.Import(context.Background(), Upload{Name: "items.csv", Body: strings.NewReader(scenarioCSV)}, testStore, Options{DryRun: true})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("dry run must not submit")
	}
	if !report.DryRun || report.Submitted || report.Success != 1 || report.Failed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestImport_EmptyFile(t *testing.T) {
	t.Parallel()

	client := &fakeBatchClient{}
	service := newTestService(t, client, nil, nil)

	report, err := service.Import(context.Background(), Upload{Name: "items.csv", Body: strings.NewReader("")}, testStore, Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Total != 0 || report.Success != 0 || report.Failed != 0 || client.calls != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestImport_ReportsIgnoredColumns(t *testing.T) {
	t.Parallel()

	service := newTestService(t, &fakeBatchClient{}, nil, nil)

	input := "Title,Price,Category,Colour\nLamp,3,Home,red\n"
	report, err := service.Import(context.Background(), Upload{Name: "items.csv", Body: strings.NewReader(input)}, testStore, Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !reflect.DeepEqual(report.IgnoredColumns, []string{"Colour"}) {
		t.Fatalf("unexpected ignored columns: %v", report.IgnoredColumns)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("ignored columns must not be errors: %v", report.Errors)
	}
}

func TestImport_OversizeIsRejected(t *testing.T) {
	t.Parallel()

	client := &fakeBatchClient{}
	history := &fakeHistory{}
	service := newTestService(t, client, nil, history)

	_, err := service.Import(context.Background(), Upload{Name: "items.csv", Size: MaxFileSize + 1, Body: strings.NewReader("")}, testStore, Options{})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if client.calls != 0 || len(history.runs) != 0 {
		t.Fatalf("rejected files must not be submitted or recorded")
	}
}

func TestImport_HistoryErrorDoesNotFailImport(t *testing.T) {
	t.Parallel()

	service := newTestService(t, &fakeBatchClient{}, nil, &fakeHistory{err: errors.New("disk full")})

	report, err := service.Import(context.Background(), Upload{Name: "items.csv", Body: strings.NewReader(scenarioCSV)}, testStore, Options{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Success != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestNewService_RequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewService(ServiceConfig{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
