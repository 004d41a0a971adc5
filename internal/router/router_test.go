package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stockledger/internal/config"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type routerFixture struct {
	engine    *gin.Engine
	container *provider.Container
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "debug"},
		Inventory: config.InventoryConfig{LowStockDefaultMin: 10, LowStockCheckOnSale: true},
	}
	container := provider.NewContainerWithDB(cfg, db, nil)
	return &routerFixture{engine: SetupRouter(cfg, container), container: container}
}

func (f *routerFixture) createSKU(t *testing.T, code string) uint {
	t.Helper()
	product := &models.Product{Name: code}
	if err := f.container.CatalogRepo.CreateProduct(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	sku := &models.SKU{ProductID: product.ID, Code: code, IsActive: true}
	if err := f.container.CatalogRepo.CreateSKU(sku); err != nil {
		t.Fatalf("create sku failed: %v", err)
	}
	return sku.ID
}

func (f *routerFixture) do(t *testing.T, method, path, body string) apiResponse {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: http status want 200 got %d", method, path, w.Code)
	}
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: unmarshal failed: %v body=%s", method, path, err, w.Body.String())
	}
	return resp
}

func TestPurchaseSaleAndStockFlow(t *testing.T) {
	f := newRouterFixture(t)
	skuID := f.createSKU(t, "HTTP-1")

	resp := f.do(t, http.MethodPost, "/api/v1/purchases", fmt.Sprintf(`{"supplier":"acme","lines":[{"sku_id":%d,"qty":"100","unit_cost":"2"}]}`, skuID))
	if resp.StatusCode != 0 {
		t.Fatalf("purchase failed: %+v", resp)
	}
	resp = f.do(t, http.MethodPost, "/api/v1/purchases", fmt.Sprintf(`{"lines":[{"sku_id":%d,"qty":50,"unit_cost":5}]}`, skuID))
	if resp.StatusCode != 0 {
		t.Fatalf("second purchase failed: %+v", resp)
	}

	resp = f.do(t, http.MethodPost, "/api/v1/sales", fmt.Sprintf(`{"customer":"c1","ts":"2025-03-14","lines":[{"sku_id":%d,"qty":"120","unit_price":"4"}]}`, skuID))
	if resp.StatusCode != 0 {
		t.Fatalf("sale failed: %+v", resp)
	}
	var sale struct {
		ID uint `json:"id"`
		Lines []struct {
			CogsTotal string `json:"cogs_total"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(resp.Data, &sale); err != nil {
		t.Fatalf("decode sale failed: %v", err)
	}
	if len(sale.Lines) != 1 || sale.Lines[0].CogsTotal != "360.00" {
		t.Fatalf("unexpected sale payload: %s", string(resp.Data))
	}

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/skus/%d/stock", skuID), "")
	var stock struct {
		OnHand  int64  `json:"on_hand"`
		AvgCost string `json:"avg_cost"`
		Value   string `json:"value"`
	}
	if err := json.Unmarshal(resp.Data, &stock); err != nil {
		t.Fatalf("decode stock failed: %v", err)
	}
	if stock.OnHand != 30 || stock.AvgCost != "3" || stock.Value != "90.00" {
		t.Fatalf("unexpected stock: %+v", stock)
	}

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/sales/%d", sale.ID), "")
	if resp.StatusCode != 0 {
		t.Fatalf("get sale failed: %+v", resp)
	}
}

func TestSaleShortageReturnsConflict(t *testing.T) {
	f := newRouterFixture(t)
	skuID := f.createSKU(t, "HTTP-SHORT")

	resp := f.do(t, http.MethodPost, "/api/v1/sales", fmt.Sprintf(`{"lines":[{"sku_id":%d,"qty":"1","unit_price":"4"}]}`, skuID))
	if resp.StatusCode != 409 {
		t.Fatalf("status_code want 409 got %d", resp.StatusCode)
	}
	var detail map[string]interface{}
	if err := json.Unmarshal(resp.Data, &detail); err != nil {
		t.Fatalf("decode detail failed: %v", err)
	}
	if detail["error_code"] != "insufficient_stock" || detail["requested"] != float64(1) || detail["available"] != float64(0) {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if _, ok := detail["request_id"]; !ok {
		t.Fatalf("error data should carry request id")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	f := newRouterFixture(t)
	skuID := f.createSKU(t, "HTTP-ERR")

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "bad id", method: http.MethodGet, path: "/api/v1/purchases/abc", want: 400},
		{name: "missing purchase", method: http.MethodGet, path: "/api/v1/purchases/999", want: 404},
		{name: "missing sku", method: http.MethodGet, path: "/api/v1/skus/999/stock", want: 404},
		{name: "empty lines", method: http.MethodPost, path: "/api/v1/purchases", body: `{"lines":[]}`, want: 400},
		{name: "negative qty", method: http.MethodPost, path: "/api/v1/purchases", body: fmt.Sprintf(`{"lines":[{"sku_id":%d,"qty":"-1","unit_cost":"1"}]}`, skuID), want: 400},
		{name: "oversized sale qty", method: http.MethodPost, path: "/api/v1/sales", body: fmt.Sprintf(`{"lines":[{"sku_id":%d,"qty":"18446744073709551615","unit_price":"1"}]}`, skuID), want: 400},
		{name: "bad ts", method: http.MethodPost, path: "/api/v1/sales", body: `{"ts":"yesterday","lines":[]}`, want: 400},
		{name: "unknown attribute", method: http.MethodPut, path: fmt.Sprintf("/api/v1/skus/%d/attributes/color", skuID), body: `{"value":"red"}`, want: 400},
		{name: "bundle not found", method: http.MethodPost, path: "/api/v1/sales/bundle", body: `{"bundle_packaging_id":5,"qty_bundles":"1","total_price":"1"}`, want: 404},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.do(t, tc.method, tc.path, tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("status_code want %d got %d (%s)", tc.want, resp.StatusCode, resp.Msg)
			}
		})
	}
}

func TestValidateSKUReturnsUnprocessable(t *testing.T) {
	f := newRouterFixture(t)
	skuID := f.createSKU(t, "HTTP-VALID")

	resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/skus/%d/packaging", skuID), `{"level":"case","units_per_parent":"12","is_sellable":true}`)
	if resp.StatusCode != 0 {
		t.Fatalf("register packaging failed: %+v", resp)
	}
	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/skus/%d/validate", skuID), "")
	if resp.StatusCode != 422 {
		t.Fatalf("status_code want 422 got %d", resp.StatusCode)
	}
	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/skus/%d/packaging", skuID), `{"level":"unit","is_sellable":true}`)
	if resp.StatusCode != 0 {
		t.Fatalf("register unit failed: %+v", resp)
	}
	resp = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/skus/%d/validate", skuID), "")
	if resp.StatusCode != 0 {
		t.Fatalf("sku should validate: %+v", resp)
	}
}

func TestReportsAndAlerts(t *testing.T) {
	f := newRouterFixture(t)
	skuID := f.createSKU(t, "HTTP-REP")
	f.do(t, http.MethodPost, "/api/v1/purchases", fmt.Sprintf(`{"lines":[{"sku_id":%d,"qty":"12","unit_cost":"1.5"}]}`, skuID))
	f.do(t, http.MethodPost, "/api/v1/sales", fmt.Sprintf(`{"lines":[{"sku_id":%d,"qty":"4","unit_price":"3"}]}`, skuID))

	resp := f.do(t, http.MethodGet, "/api/v1/reports/valuation", "")
	var valuation struct {
		TotalValue string `json:"total_value"`
	}
	if err := json.Unmarshal(resp.Data, &valuation); err != nil || valuation.TotalValue != "12.00" {
		t.Fatalf("unexpected valuation: %s err=%v", string(resp.Data), err)
	}

	resp = f.do(t, http.MethodGet, "/api/v1/reports/low-stock", "")
	var low []map[string]interface{}
	if err := json.Unmarshal(resp.Data, &low); err != nil || len(low) != 1 {
		t.Fatalf("unexpected low stock: %s err=%v", string(resp.Data), err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/low-stock/alerts?page=1&page_size=5", nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	var page struct {
		StatusCode int `json:"status_code"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode alerts failed: %v", err)
	}
	if page.StatusCode != 0 || page.Pagination.Total != 1 {
		t.Fatalf("expected one inline alert after sale, got %+v", page)
	}
}

func TestHealth(t *testing.T) {
	f := newRouterFixture(t)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}
}
