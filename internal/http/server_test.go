package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tally/internal/catalog"
	"tally/internal/journal"
	"tally/internal/kv/memory"
	"tally/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	settings := memory.New()
	store := journal.New(memory.New(), "", 0)
	store.Load(context.Background())
	sales := services.NewSalesService(cat, store, nil)

	srv := NewServer(":0", sales, store, cat, settings, Options{
		Changes: store.Subscribe(),
	})
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCreateSale(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/sales",
		`{"itemName":"Coffee","qty":3,"date":"2026-09-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var tx struct {
		ID       string `json:"id"`
		ItemName string `json:"itemName"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("created sale has no id")
	}
	if tx.ItemName != "Coffee" || tx.Category != "Drinks" {
		t.Fatalf("got %q/%q, want Coffee/Drinks", tx.ItemName, tx.Category)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"unknown product", `{"itemName":"Nope","qty":1,"date":"2026-09-01"}`, "no-product"},
		{"missing date", `{"itemName":"Coffee","qty":1}`, "no-date"},
		{"zero quantity", `{"itemName":"Coffee","qty":0,"date":"2026-09-01"}`, "bad-quantity"},
		{"negative quantity", `{"itemName":"Coffee","qty":-2,"date":"2026-09-01"}`, "bad-quantity"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/sales", tc.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["error"] != "validation" || resp["reason"] != tc.reason {
				t.Fatalf("got %v, want validation/%s", resp, tc.reason)
			}
		})
	}
}

func TestCreateSaleMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/sales", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
}

func TestListSales(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/sales", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Fatalf("empty journal should list as [], got %s", got)
	}

	doJSON(t, srv, http.MethodPost, "/api/sales", `{"itemName":"Coffee","qty":1,"date":"2026-09-01"}`)
	doJSON(t, srv, http.MethodPost, "/api/sales", `{"itemName":"Bagel","qty":2,"date":"2026-09-02"}`)

	rr = doJSON(t, srv, http.MethodGet, "/api/sales", "")
	var list []struct {
		ItemName string `json:"itemName"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	// Newest first.
	if list[0].ItemName != "Bagel" || list[1].ItemName != "Coffee" {
		t.Fatalf("order = %q, %q, want Bagel, Coffee", list[0].ItemName, list[1].ItemName)
	}
}

func TestDeleteSale(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/sales", `{"itemName":"Coffee","qty":1,"date":"2026-09-01"}`)
	var tx struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/sales/"+tx.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"removed":true`) {
		t.Fatalf("body = %s, want removed true", rr.Body.String())
	}

	// Deleting again is a no-op, still 200.
	rr = doJSON(t, srv, http.MethodDelete, "/api/sales/"+tx.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("repeat delete status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"removed":false`) {
		t.Fatalf("body = %s, want removed false", rr.Body.String())
	}
}

func TestDashboardSummary(t *testing.T) {
	srv := newTestServer(t)

	today := time.Now().Format("2006-01-02")
	doJSON(t, srv, http.MethodPost, "/api/sales", `{"itemName":"Coffee","qty":3,"date":"`+today+`"}`)

	rr := doJSON(t, srv, http.MethodGet, "/api/dashboard/summary", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var summary struct {
		TotalSales   json.Number `json:"totalSales"`
		PeriodTotal  json.Number `json:"periodTotal"`
		Transactions int         `json:"transactions"`
		Period       string      `json:"period"`
	}
	dec := json.NewDecoder(strings.NewReader(rr.Body.String()))
	dec.UseNumber()
	if err := dec.Decode(&summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Transactions != 1 {
		t.Fatalf("transactions = %d, want 1", summary.Transactions)
	}
	if summary.Period != "daily" {
		t.Fatalf("period = %q, want daily", summary.Period)
	}
}

func TestDashboardSummaryRejectsUnknownPeriod(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/dashboard/summary?period=yearly", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
}

func TestDashboardTopItems(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/sales", `{"itemName":"Coffee","qty":5,"date":"2026-09-01"}`)
	doJSON(t, srv, http.MethodPost, "/api/sales", `{"itemName":"Bagel","qty":2,"date":"2026-09-01"}`)

	rr := doJSON(t, srv, http.MethodGet, "/api/dashboard/top-items?limit=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var rows []struct {
		ItemName string `json:"itemName"`
		Qty      int64  `json:"qty"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 1 || rows[0].ItemName != "Coffee" || rows[0].Qty != 5 {
		t.Fatalf("rows = %+v, want one Coffee row with qty 5", rows)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard/top-items?limit=0", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("limit=0 status=%d, want 422", rr.Code)
	}
}

func TestDashboardCacheInvalidatedByNewSale(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/dashboard/by-product", "")
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Fatalf("empty journal view = %s, want []", got)
	}

	doJSON(t, srv, http.MethodPost, "/api/sales", `{"itemName":"Coffee","qty":1,"date":"2026-09-01"}`)

	// The purge rides an async notification, poll for the fresh view.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rr = doJSON(t, srv, http.MethodGet, "/api/dashboard/by-product", "")
		if strings.Contains(rr.Body.String(), "Coffee") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("view never refreshed, still %s", rr.Body.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDashboardEmptyViews(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{
		"/api/dashboard/top-items",
		"/api/dashboard/by-product",
		"/api/dashboard/over-time",
		"/api/dashboard/by-category",
	} {
		rr := doJSON(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
			t.Fatalf("%s = %s, want []", path, got)
		}
	}
}

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/catalog", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Coffee") {
		t.Fatalf("catalog body missing Coffee: %s", rr.Body.String())
	}
}

func TestTheme(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/theme", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"light"`) {
		t.Fatalf("default theme body = %s, want light", rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/theme", `{"theme":"dark"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/theme", "")
	if !strings.Contains(rr.Body.String(), `"dark"`) {
		t.Fatalf("theme body = %s, want dark", rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/theme", `{"theme":"sepia"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid theme status=%d, want 422", rr.Code)
	}
}
