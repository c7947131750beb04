// Package web serves a localhost-only single-user UI and JSON API; it has no
// auth/CSRF protection of its own and acts with the CLI's backend session.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"vcnty/importer"
	"vcnty/internal/logging"
	"vcnty/internal/orderflow"
	"vcnty/internal/timeutil"
	"vcnty/inventory"
	"vcnty/output"
	"vcnty/storage"
	"vcnty/vcntyapi"
)

//go:embed templates/*.html
var templateFS embed.FS

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and other fields.
const multipartOverhead = 1 << 20

const itemLookupPageSize = 200

// HistoryStore is the import history used by the server.
type HistoryStore interface {
	importer.HistoryRecorder
	ListImportRuns(filter storage.RunFilter) ([]importer.Run, error)
	GetImportRun(id string) (importer.Run, error)
}

type Options struct {
	Client          vcntyapi.Client
	History         HistoryStore
	Logger          *zap.Logger
	MaxFileSize     int64
	DefaultCurrency string
}

type Server struct {
	client   vcntyapi.Client
	history  HistoryStore
	importer *importer.Service
	logger   *zap.Logger
	router   *chi.Mux
	currency string

	mu        sync.RWMutex
	itemCache map[string]map[string]vcntyapi.ItemPage
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type batchDeleteRequest struct {
	StoreID string   `json:"storeId"`
	IDs     []string `json:"ids"`
}

type storeStatusRequest struct {
	Status string `json:"status"`
}

// itemFieldsRequest carries item values keyed by template column name or any
// header alias the importer accepts.
type itemFieldsRequest map[string]string

type batchDeleteResponse struct {
	Deleted int `json:"deleted"`
}

var errUpstream = errors.New("backend request failed")

func NewServer(opts Options) (*Server, error) {
	if opts.Client == nil {
		return nil, errors.New("backend client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		client:    opts.Client,
		history:   opts.History,
		logger:    logger,
		router:    chi.NewRouter(),
		itemCache: make(map[string]map[string]vcntyapi.ItemPage),
		currency:  opts.DefaultCurrency,
	}

	serviceConfig := importer.ServiceConfig{
		Client:          opts.Client,
		Logger:          logger,
		MaxFileSize:     opts.MaxFileSize,
		DefaultCurrency: opts.DefaultCurrency,
		Invalidator:     server,
	}
	if opts.History != nil {
		serviceConfig.History = opts.History
	}
	service, err := importer.NewService(serviceConfig)
	if err != nil {
		return nil, err
	}
	server.importer = service

	server.setupMiddleware()
	server.setupRoutes()
	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleStoresPage)
	s.router.Get("/stores/{id}", s.handleStorePage)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/import/template", s.handleAPITemplate)
		r.Get("/stores", s.handleAPIStores)
		r.Get("/stores/{id}", s.handleAPIStore)
		r.Delete("/stores/{id}", s.handleAPIDeleteStore)
		r.Put("/stores/{id}/status", s.handleAPIStoreStatus)
		r.Get("/stores/{id}/items", s.handleAPIStoreItems)
		r.Post("/stores/{id}/items", s.handleAPICreateItem)
		r.Put("/stores/{id}/items/{itemID}", s.handleAPIUpdateItem)
		r.Delete("/stores/{id}/items/{itemID}", s.handleAPIDeleteItem)
		r.Post("/stores/{id}/import", s.handleAPIImport)
		r.Post("/items/batch-delete", s.handleAPIBatchDelete)
		r.Get("/orders", s.handleAPIOrders)
		r.Patch("/orders/{id}/status", s.handleAPIOrderStatus)
		r.Get("/imports", s.handleAPIImports)
		r.Get("/imports/{id}", s.handleAPIImportRun)
		r.Get("/imports/{id}/report", s.handleAPIImportReport)
	})
}

// InvalidateStoreItems drops every cached item page of a store.
func (s *Server) InvalidateStoreItems(storeID string) {
	s.mu.Lock()
	delete(s.itemCache, storeID)
	s.mu.Unlock()
}

func (s *Server) invalidateAllItems() {
	s.mu.Lock()
	s.itemCache = make(map[string]map[string]vcntyapi.ItemPage)
	s.mu.Unlock()
}

func (s *Server) handleStoresPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.client.ListStores(r.Context(), vcntyapi.Page{Limit: 100})
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	view := storesPageView{Title: "Stores", Stores: BuildStoreViews(page.Items), Total: page.Total}
	if err := renderTemplate(w, "stores.html", view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleStorePage(w http.ResponseWriter, r *http.Request) {
	store, err := s.client.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	view := storePageView{
		Title:       store.Name,
		Store:       BuildStoreViews([]inventory.Store{store})[0],
		MaxFileSize: s.importer.MaxFileSize(),
	}
	if s.history != nil {
		runs, err := s.history.ListImportRuns(storage.RunFilter{StoreID: store.ID, Limit: 10})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		view.Runs = BuildRunViews(runs)
	}
	if err := renderTemplate(w, "store.html", view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPITemplate(w http.ResponseWriter, r *http.Request) {
	writer, err := output.WriterForFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.TemplateFileName(writer)))
	if err := writer.WriteTemplate(w); err != nil {
		logging.FromContext(r.Context(), s.logger).Error("write template failed", zap.Error(err))
	}
}

func (s *Server) handleAPIStores(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stores, err := s.client.ListStores(r.Context(), page)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

func (s *Server) handleAPIStore(w http.ResponseWriter, r *http.Request) {
	store, err := s.client.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

func (s *Server) handleAPIStoreStatus(w http.ResponseWriter, r *http.Request) {
	var req storeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest)
		return
	}
	status, ok := inventory.NormalizeStoreStatus(req.Status)
	if !ok {
		http.Error(w, fmt.Sprintf("unsupported store status %q", req.Status), http.StatusBadRequest)
		return
	}

	store, err := s.client.SetStoreStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	logging.FromContext(r.Context(), s.logger).Info("store status updated",
		zap.String("store_id", store.ID),
		zap.String("status", store.Status),
	)
	writeJSON(w, http.StatusOK, BuildStoreViews([]inventory.Store{store})[0])
}

func (s *Server) handleAPIDeleteStore(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := s.client.DeleteStore(r.Context(), storeID); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.InvalidateStoreItems(storeID)
	logging.FromContext(r.Context(), s.logger).Info("store deleted", zap.String("store_id", storeID))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPICreateItem(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeItemFields(w, r)
	if !ok {
		return
	}
	store, err := s.client.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if strings.TrimSpace(fields.Get(importer.FieldStatus)) == "" {
		fields[importer.FieldStatus] = store.DefaultItemStatus()
	}

	item, err := importer.ValidateItem(fields, importer.RowDefaults{Location: store.Location(), Currency: s.currency})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	created, err := s.client.CreateItem(r.Context(), store.ID, item)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.InvalidateStoreItems(store.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAPIUpdateItem(w http.ResponseWriter, r *http.Request) {
	changes, ok := decodeItemFields(w, r)
	if !ok {
		return
	}
	if len(changes) == 0 {
		http.Error(w, "no fields to update", http.StatusBadRequest)
		return
	}
	storeID := strings.TrimSpace(chi.URLParam(r, "id"))
	itemID := chi.URLParam(r, "itemID")

	existing, found, err := vcntyapi.FindStoreItem(r.Context(), s.client, storeID, itemID, itemLookupPageSize)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if !found {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	edited, err := importer.EditItem(existing, changes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	updated, err := s.client.UpdateItem(r.Context(), edited)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.InvalidateStoreItems(storeID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAPIDeleteItem(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := s.client.DeleteItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	s.InvalidateStoreItems(storeID)
	w.WriteHeader(http.StatusNoContent)
}

// decodeItemFields maps request keys onto template fields. Unknown keys are
// rejected so typos do not silently drop values.
func decodeItemFields(w http.ResponseWriter, r *http.Request) (importer.NormalizedRow, bool) {
	var req itemFieldsRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest)
		return nil, false
	}
	fields := make(importer.NormalizedRow, len(req))
	unknown := make([]string, 0)
	for key, value := range req {
		field, ok := importer.LookupField(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		fields[field] = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		http.Error(w, "unknown item fields: "+strings.Join(unknown, ", "), http.StatusBadRequest)
		return nil, false
	}
	return fields, true
}

func (s *Server) handleAPIStoreItems(w http.ResponseWriter, r *http.Request) {
	storeID := strings.TrimSpace(chi.URLParam(r, "id"))
	page, err := parsePage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("%d:%d", page.Limit, page.Offset)
	s.mu.RLock()
	cached, ok := s.itemCache[storeID][key]
	s.mu.RUnlock()
	if ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	items, err := s.client.ListStoreItems(r.Context(), storeID, page)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}

	s.mu.Lock()
	if s.itemCache[storeID] == nil {
		s.itemCache[storeID] = make(map[string]vcntyapi.ItemPage)
	}
	s.itemCache[storeID][key] = items
	s.mu.Unlock()

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.importer.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			limitErr := &importer.FileTooLargeError{Size: tooLarge.Limit, Limit: maxSize}
			http.Error(w, limitErr.UserMessage(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	store, err := s.client.GetStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}

	upload := importer.Upload{Name: header.Filename, Size: header.Size, Body: file}
	options := importer.Options{DryRun: parseBool(r.FormValue("dryRun"))}
	report, err := s.importer.Import(r.Context(), upload, store, options)
	if err != nil {
		var tooLarge *importer.FileTooLargeError
		switch {
		case errors.As(err, &tooLarge):
			http.Error(w, tooLarge.UserMessage(), http.StatusRequestEntityTooLarge)
		case errors.Is(err, importer.ErrUnsupportedFormat):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAPIBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest)
		return
	}
	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		http.Error(w, "ids must not be empty", http.StatusBadRequest)
		return
	}

	if err := s.client.DeleteItemsBatch(r.Context(), ids); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if storeID := strings.TrimSpace(req.StoreID); storeID != "" {
		s.InvalidateStoreItems(storeID)
	} else {
		s.invalidateAllItems()
	}
	writeJSON(w, http.StatusOK, batchDeleteResponse{Deleted: len(ids)})
}

func (s *Server) handleAPIOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.client.ListSellerOrders(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if parseBool(r.URL.Query().Get("pending")) {
		orders = orderflow.Split(orders).Pending
	}
	writeJSON(w, http.StatusOK, BuildOrderViews(orders))
}

func (s *Server) handleAPIOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(chi.URLParam(r, "id"))
	var req statusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest)
		return
	}

	orders, err := s.client.ListSellerOrders(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	current, ok := findOrder(orders, orderID)
	if !ok {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	target, err := orderflow.ValidateTransition(current.Status, req.Status)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, orderflow.ErrUnsupportedStatus) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	updated, err := s.client.UpdateOrderStatus(r.Context(), orderID, target, req.Reason)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	logging.FromContext(r.Context(), s.logger).Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("from", current.Status),
		zap.String("to", target),
	)
	writeJSON(w, http.StatusOK, BuildOrderViews([]vcntyapi.Order{updated})[0])
}

func (s *Server) handleAPIImports(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []runView{})
		return
	}
	query := r.URL.Query()
	since, err := timeutil.ParseSince(query.Get("since"), time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := 50
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	runs, err := s.history.ListImportRuns(storage.RunFilter{StoreID: query.Get("storeId"), Since: since, Limit: limit})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, BuildRunViews(runs))
}

func (s *Server) handleAPIImportRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, BuildRunViews([]importer.Run{run})[0])
}

func (s *Server) handleAPIImportReport(w http.ResponseWriter, r *http.Request) {
	writer, err := output.WriterForFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "import_report_"+run.ID+writer.Extension()))
	if err := writer.WriteReport(w, run.Report); err != nil {
		logging.FromContext(r.Context(), s.logger).Error("write report failed", zap.Error(err))
	}
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (importer.Run, bool) {
	if s.history == nil {
		http.Error(w, "import history is disabled", http.StatusNotFound)
		return importer.Run{}, false
	}
	run, err := s.history.GetImportRun(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrImportRunNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return importer.Run{}, false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return importer.Run{}, false
	}
	return run, true
}

// writeUpstreamError maps backend failures to gateway errors, passing through
// auth and not-found statuses.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context(), s.logger).Warn("backend request failed", zap.Error(err))

	var apiErr *vcntyapi.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			http.Error(w, apiErr.Message, apiErr.StatusCode)
			return
		}
	}
	if errors.Is(err, vcntyapi.ErrNotLoggedIn) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	http.Error(w, fmt.Errorf("%w: %w", errUpstream, err).Error(), http.StatusBadGateway)
}

func findOrder(orders []vcntyapi.Order, id string) (vcntyapi.Order, bool) {
	for _, order := range orders {
		if order.ID == id {
			return order, true
		}
	}
	return vcntyapi.Order{}, false
}

func parsePage(r *http.Request) (vcntyapi.Page, error) {
	query := r.URL.Query()
	var page vcntyapi.Page
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 500 {
			return vcntyapi.Page{}, fmt.Errorf("limit must be between 1 and 500")
		}
		page.Limit = limit
	}
	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return vcntyapi.Page{}, fmt.Errorf("offset must be a non-negative integer")
		}
		page.Offset = offset
	}
	return page, nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func renderTemplate(w http.ResponseWriter, pageTemplate string, data any) error {
	tmpl, err := template.New("base.html").Funcs(template.FuncMap{
		"fmtPrice": func(value float64, currency string) string {
			return fmt.Sprintf("%.2f %s", value, currency)
		},
		"fmtTime": timeutil.FormatTimestamp,
		"mib": func(value int64) int64 {
			return value / (1024 * 1024)
		},
	}).ParseFS(templateFS, "templates/base.html", "templates/"+pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", pageTemplate, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("render template %s: %w", pageTemplate, err)
	}
	return nil
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
