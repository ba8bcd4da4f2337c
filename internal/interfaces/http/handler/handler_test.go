package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appaccounting "github.com/tecsitel/backend/internal/application/accounting"
	appinvoicing "github.com/tecsitel/backend/internal/application/invoicing"
	"github.com/tecsitel/backend/internal/application/state"
	"github.com/tecsitel/backend/internal/domain/accounting"
	"github.com/tecsitel/backend/internal/interfaces/http/middleware"
	"github.com/tecsitel/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// memoryRepo keeps the last saved snapshot in memory
type memoryRepo struct {
	mu       sync.Mutex
	snapshot *state.FullState
	saves    int
}

func (r *memoryRepo) Load(ctx context.Context) (*state.FullState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot == nil {
		s := &state.FullState{}
		s.Normalize()
		return s, nil
	}
	return r.snapshot, nil
}

func (r *memoryRepo) Save(ctx context.Context, snapshot *state.FullState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = snapshot
	r.saves++
	return nil
}

// syncSaver saves immediately instead of queueing, keeping tests deterministic
type syncSaver struct {
	store *state.Store
	repo  *memoryRepo
}

func (s *syncSaver) RequestSave() {
	_ = s.repo.Save(context.Background(), s.store.Snapshot())
}

func (s *syncSaver) SaveNow(ctx context.Context) error {
	return s.repo.Save(ctx, s.store.Snapshot())
}

type testEnv struct {
	engine *gin.Engine
	store  *state.Store
	repo   *memoryRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := state.NewStore("F001")
	repo := &memoryRepo{}
	saver := &syncSaver{store: store, repo: repo}

	invoiceService := appinvoicing.NewService(store, saver, decimal.NewFromInt(18), zap.NewNop())
	accountingService := appaccounting.NewService(store, saver, zap.NewNop())

	engine := gin.New()
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(NewInvoiceHandler(invoiceService)).
		Register(NewTransactionHandler(accountingService)).
		Register(NewReportHandler(accountingService)).
		Register(NewStateHandler(store, saver, repo))
	r.Setup()

	return &testEnv{engine: engine, store: store, repo: repo}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func mustTransaction(t *testing.T) *accounting.Transaction {
	t.Helper()
	tx, err := accounting.NewTransaction(
		accounting.TransactionTypeExpense,
		"Compra de utiles",
		decimal.NewFromInt(50),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return tx
}

func validInvoiceBody() map[string]any {
	return map[string]any{
		"client_ruc":  "20100055237",
		"client_name": "Minera Andina SAC",
		"description": "Servicio de consultoria",
		"amount":      1000.0,
		"issue_date":  "2025-03-10",
		"due_date":    "2025-04-09",
	}
}

func TestCreateInvoice(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/invoices", validInvoiceBody())
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeResponse(t, w)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "F001-00000001", data["invoice_number"])
	assert.Equal(t, "1000.00", data["amount"])
	assert.Equal(t, "180.00", data["igv_amount"])
	assert.Equal(t, "1180.00", data["total"])
	assert.Equal(t, "Pendiente", data["status"])

	// The save was scheduled and the snapshot reached the repository
	assert.Equal(t, 1, env.repo.saves)
}

func TestCreateInvoice_ExplicitZeroRate(t *testing.T) {
	env := newTestEnv(t)

	req := validInvoiceBody()
	req["igv_rate"] = 0.0
	w := env.request(t, http.MethodPost, "/api/v1/invoices", req)
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, "0.00", data["igv_amount"])
	assert.Equal(t, "1000.00", data["total"])
}

func TestCreateInvoice_InvalidRUC(t *testing.T) {
	env := newTestEnv(t)

	req := validInvoiceBody()
	req["client_ruc"] = "12345678901"
	w := env.request(t, http.MethodPost, "/api/v1/invoices", req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeResponse(t, w)
	assert.Equal(t, false, body["success"])

	errInfo := body["error"].(map[string]any)
	details := errInfo["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "client_ruc", details[0].(map[string]any)["field"])

	// Rejected requests never burn a sequence value
	w = env.request(t, http.MethodPost, "/api/v1/invoices", validInvoiceBody())
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, "F001-00000001", data["invoice_number"])
}

func TestCreateInvoice_DueDateBeforeIssueDate(t *testing.T) {
	env := newTestEnv(t)

	req := validInvoiceBody()
	req["due_date"] = "2025-03-01"
	w := env.request(t, http.MethodPost, "/api/v1/invoices", req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndGetInvoice(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/invoices", validInvoiceBody())
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeResponse(t, w)["data"].(map[string]any)

	w = env.request(t, http.MethodGet, "/api/v1/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeResponse(t, w)["data"].([]any)
	require.Len(t, list, 1)

	w = env.request(t, http.MethodGet, "/api/v1/invoices/"+created["id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, created["invoice_number"], got["invoice_number"])
}

func TestGetInvoice_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/invoices/7f9c44bb-7a52-4a7e-9c93-2f5a6d1f2a10", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/invoices/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateInvoiceStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/invoices", validInvoiceBody())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeResponse(t, w)["data"].(map[string]any)["id"].(string)

	w = env.request(t, http.MethodPatch, "/api/v1/invoices/"+id+"/status", map[string]any{"status": "Pagada"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, "Pagada", data["status"])

	// Paid is terminal: rejecting afterwards fails as a business rule
	w = env.request(t, http.MethodPatch, "/api/v1/invoices/"+id+"/status", map[string]any{"status": "Rechazado"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateInvoiceStatus_UnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/invoices", validInvoiceBody())
	id := decodeResponse(t, w)["data"].(map[string]any)["id"].(string)

	w = env.request(t, http.MethodPatch, "/api/v1/invoices/"+id+"/status", map[string]any{"status": "Perdida"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAndListTransactions(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"type":        "Egreso",
		"description": "Alquiler de oficina",
		"amount":      500.0,
		"date":        "2025-03-05",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, "Egreso", data["type"])
	assert.Equal(t, "500.00", data["amount"])

	w = env.request(t, http.MethodGet, "/api/v1/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeResponse(t, w)["data"].([]any)
	require.Len(t, list, 1)
}

func TestCreateTransaction_InvalidType(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"type":        "Transferencia",
		"description": "x",
		"amount":      10.0,
		"date":        "2025-03-05",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardAndIncomeStatement(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/invoices", validInvoiceBody())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeResponse(t, w)["data"].(map[string]any)["id"].(string)
	w = env.request(t, http.MethodPatch, "/api/v1/invoices/"+id+"/status", map[string]any{"status": "Pagada"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"type":        "Egreso",
		"description": "Alquiler de oficina",
		"amount":      400.0,
		"date":        "2025-03-05",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/reports/dashboard?month=2025-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, "1180.00", dash["monthly_income"])
	assert.Equal(t, "400.00", dash["monthly_expenses"])
	assert.Equal(t, "780.00", dash["net_balance"])
	assert.Equal(t, float64(0), dash["pending_invoices_count"])

	w = env.request(t, http.MethodGet, "/api/v1/reports/income-statement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	statement := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, "1180.00", statement["total_income"])
	assert.Equal(t, "400.00", statement["total_expenses"])
	assert.Equal(t, "708.00", statement["cost_of_sales"])
	assert.Equal(t, "472.00", statement["gross_profit"])
	assert.Equal(t, "280.00", statement["operating_expenses"])
	assert.Equal(t, "120.00", statement["admin_expenses"])
	assert.Equal(t, "180.00", statement["taxes_payable"])
	assert.Equal(t, "0.00", statement["receivables"])
}

func TestDashboard_DefaultMonthUsesUTC(t *testing.T) {
	env := newTestEnv(t)

	// Server clock in Lima just before midnight on March 31: local time is
	// still March while UTC has already rolled into April.
	lima := time.FixedZone("America/Lima", -5*3600)
	restore := nowFunc
	nowFunc = func() time.Time {
		return time.Date(2025, 3, 31, 23, 30, 0, 0, lima)
	}
	defer func() { nowFunc = restore }()

	body := validInvoiceBody()
	body["issue_date"] = "2025-04-01"
	body["due_date"] = "2025-04-30"
	w := env.request(t, http.MethodPost, "/api/v1/invoices", body)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeResponse(t, w)["data"].(map[string]any)["id"].(string)
	w = env.request(t, http.MethodPatch, "/api/v1/invoices/"+id+"/status", map[string]any{"status": "Pagada"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, "1180.00", dash["monthly_income"])
}

func TestDashboard_InvalidMonth(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/reports/dashboard?month=March", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStateEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/invoices", validInvoiceBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(1), status["invoices"])
	assert.Equal(t, float64(2), status["invoice_counter"])

	w = env.request(t, http.MethodPost, "/api/v1/state/save", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Mutate locally without saving, then reload from the repository
	env.store.AppendTransaction(mustTransaction(t))
	w = env.request(t, http.MethodPost, "/api/v1/state/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reloaded := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(0), reloaded["transactions"])
	assert.Equal(t, float64(1), reloaded["invoices"])
}
