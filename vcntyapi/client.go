package vcntyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vcnty/inventory"
)

const (
	defaultPageSize      = 50
	fallbackErrorMessage = "API request failed"
	unreadableErrorBody  = "Request failed"
)

// Client defines the backend operations used by the seller tooling.
type Client interface {
	ListStores(ctx context.Context, page Page) (StorePage, error)
	GetStore(ctx context.Context, storeID string) (inventory.Store, error)
	SetStoreStatus(ctx context.Context, storeID, status string) (inventory.Store, error)
	DeleteStore(ctx context.Context, storeID string) error
	ListStoreItems(ctx context.Context, storeID string, page Page) (ItemPage, error)
	CreateItemsBatch(ctx context.Context, storeID string, items []inventory.Item) error
	DeleteItemsBatch(ctx context.Context, ids []string) error
	CreateItem(ctx context.Context, storeID string, item inventory.Item) (inventory.Item, error)
	UpdateItem(ctx context.Context, item inventory.Item) (inventory.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	ListSellerOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status, reason string) (Order, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the bearer token for the next request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed access token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

type ClientConfig struct {
	BaseURL    string
	Tokens     TokenSource
	UserAgent  string
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL    string
	tokens     TokenSource
	userAgent  string
	httpClient httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}

	return &HTTPClient{
		baseURL:    baseURL,
		tokens:     cfg.Tokens,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
	}, nil
}

// APIError is a non-2xx backend response. Its Error text is the backend's
// message so it can be shown to sellers verbatim.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Detail includes the request line for logs.
func (e *APIError) Detail() string {
	return fmt.Sprintf("request %s %s failed with status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Page selects a window of a listing. A zero Limit uses the default page size.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) query() string {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", strconv.Itoa(offset))
	return values.Encode()
}

type StorePage struct {
	Items []inventory.Store `json:"items"`
	Total int               `json:"total"`
}

type ItemPage struct {
	Items []inventory.Item `json:"items"`
	Total int              `json:"total"`
}

type OrderLine struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Currency  string  `json:"currency"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	StoreName string  `json:"storeName,omitempty"`
}

type Order struct {
	ID              string      `json:"id"`
	Status          string      `json:"status"`
	TotalAmount     float64     `json:"totalAmount"`
	Currency        string      `json:"currency"`
	DeliveryAddress string      `json:"deliveryAddress,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	Items           []OrderLine `json:"items"`
}

type batchCreateRequest struct {
	StoreID string           `json:"storeId"`
	Items   []inventory.Item `json:"items"`
}

type storeStatusRequest struct {
	Status string `json:"status"`
}

type itemCreateRequest struct {
	inventory.Item
	StoreID string `json:"storeId"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (c *HTTPClient) ListStores(ctx context.Context, page Page) (StorePage, error) {
	var out StorePage
	if err := c.doJSON(ctx, http.MethodGet, "/stores?"+page.query(), nil, &out); err != nil {
		return StorePage{}, err
	}
	return out, nil
}

func (c *HTTPClient) GetStore(ctx context.Context, storeID string) (inventory.Store, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return inventory.Store{}, errors.New("store id is required")
	}
	var out inventory.Store
	if err := c.doJSON(ctx, http.MethodGet, "/stores/"+url.PathEscape(storeID), nil, &out); err != nil {
		return inventory.Store{}, err
	}
	return out, nil
}

// SetStoreStatus publishes a store or moves it back to draft.
func (c *HTTPClient) SetStoreStatus(ctx context.Context, storeID, status string) (inventory.Store, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return inventory.Store{}, errors.New("store id is required")
	}
	normalized, ok := inventory.NormalizeStoreStatus(status)
	if !ok {
		return inventory.Store{}, fmt.Errorf("unsupported store status %q", status)
	}
	var out inventory.Store
	path := "/stores/" + url.PathEscape(storeID)
	if err := c.doJSON(ctx, http.MethodPut, path, storeStatusRequest{Status: normalized}, &out); err != nil {
		return inventory.Store{}, err
	}
	if out.ID == "" {
		out.ID = storeID
	}
	if out.Status == "" {
		out.Status = normalized
	}
	return out, nil
}

func (c *HTTPClient) DeleteStore(ctx context.Context, storeID string) error {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return errors.New("store id is required")
	}
	return c.doJSON(ctx, http.MethodDelete, "/stores/"+url.PathEscape(storeID), nil, nil)
}

func (c *HTTPClient) ListStoreItems(ctx context.Context, storeID string, page Page) (ItemPage, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return ItemPage{}, errors.New("store id is required")
	}
	var out ItemPage
	path := "/items/store/" + url.PathEscape(storeID) + "?" + page.query()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return ItemPage{}, err
	}
	return out, nil
}

// CreateItemsBatch persists all items in one request. The backend treats the
// batch atomically.
func (c *HTTPClient) CreateItemsBatch(ctx context.Context, storeID string, items []inventory.Item) error {
	if len(items) == 0 {
		return errors.New("batch payload must not be empty")
	}
	payload := batchCreateRequest{StoreID: storeID, Items: items}
	return c.doJSON(ctx, http.MethodPost, "/items/batch", payload, nil)
}

func (c *HTTPClient) DeleteItemsBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.New("at least one item id is required")
	}
	return c.doJSON(ctx, http.MethodPost, "/items/batch-delete", batchDeleteRequest{IDs: ids}, nil)
}

// ItemLister pages through the items of a store.
type ItemLister interface {
	ListStoreItems(ctx context.Context, storeID string, page Page) (ItemPage, error)
}

// CollectStoreItems pages through the listing until the reported total is
// reached or a page comes back empty.
func CollectStoreItems(ctx context.Context, lister ItemLister, storeID string, pageSize int) ([]inventory.Item, error) {
	items := make([]inventory.Item, 0)
	for offset := 0; ; offset += pageSize {
		page, err := lister.ListStoreItems(ctx, storeID, Page{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list items at offset %d: %w", offset, err)
		}
		items = append(items, page.Items...)
		if len(page.Items) == 0 || len(items) >= page.Total {
			return items, nil
		}
	}
}

// FindStoreItem returns the item with itemID from the store listing.
func FindStoreItem(ctx context.Context, lister ItemLister, storeID, itemID string, pageSize int) (inventory.Item, bool, error) {
	items, err := CollectStoreItems(ctx, lister, storeID, pageSize)
	if err != nil {
		return inventory.Item{}, false, err
	}
	itemID = strings.TrimSpace(itemID)
	for _, item := range items {
		if item.ID == itemID {
			return item, true, nil
		}
	}
	return inventory.Item{}, false, nil
}

func (c *HTTPClient) CreateItem(ctx context.Context, storeID string, item inventory.Item) (inventory.Item, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return inventory.Item{}, errors.New("store id is required")
	}
	item.ID = ""
	var out inventory.Item
	if err := c.doJSON(ctx, http.MethodPost, "/items", itemCreateRequest{Item: item, StoreID: storeID}, &out); err != nil {
		return inventory.Item{}, err
	}
	return out, nil
}

// UpdateItem replaces the item identified by item.ID.
func (c *HTTPClient) UpdateItem(ctx context.Context, item inventory.Item) (inventory.Item, error) {
	itemID := strings.TrimSpace(item.ID)
	if itemID == "" {
		return inventory.Item{}, errors.New("item id is required")
	}
	var out inventory.Item
	if err := c.doJSON(ctx, http.MethodPut, "/items/"+url.PathEscape(itemID), item, &out); err != nil {
		return inventory.Item{}, err
	}
	if out.ID == "" {
		return item, nil
	}
	return out, nil
}

func (c *HTTPClient) DeleteItem(ctx context.Context, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return errors.New("item id is required")
	}
	return c.doJSON(ctx, http.MethodDelete, "/items/"+url.PathEscape(itemID), nil, nil)
}

func (c *HTTPClient) ListSellerOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := c.doJSON(ctx, http.MethodGet, "/orders/seller", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) UpdateOrderStatus(ctx context.Context, orderID, status, reason string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, errors.New("order id is required")
	}
	var out Order
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	payload := statusUpdateRequest{Status: status, Reason: strings.TrimSpace(reason)}
	if err := c.doJSON(ctx, http.MethodPatch, path, payload, &out); err != nil {
		return Order{}, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if strings.Contains(c.baseURL, "ngrok") {
		req.Header.Set("ngrok-skip-browser-warning", "true")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("resolve access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method:     method,
			Path:       endpointPath,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(responseBody),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return unreadableErrorBody
	}

	var text string
	if err := json.Unmarshal(payload.Message, &text); err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	// Validation failures carry a list of messages.
	var list []string
	if err := json.Unmarshal(payload.Message, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	return fallbackErrorMessage
}
