package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/numerator"
	"sorvetao/internal/core/types"
	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/domain/catalogs/client"
	"sorvetao/internal/domain/checkout"
	"sorvetao/internal/domain/ordering"
	"sorvetao/internal/infrastructure/http/v1/dto"
	"sorvetao/internal/infrastructure/session"
	"sorvetao/internal/infrastructure/storage/postgres"
	"sorvetao/pkg/logger"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

// --- test doubles ---

type clientRepo map[string]*client.Client

func (r clientRepo) GetByID(_ context.Context, clientID string) (*client.Client, error) {
	if c, ok := r[clientID]; ok {
		return c, nil
	}
	return nil, apperror.NewNotFound("client", clientID)
}

func (r clientRepo) Search(_ context.Context, term string, limit int) ([]*client.Client, error) {
	var out []*client.Client
	for _, c := range r {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(term)) {
			out = append(out, c)
		}
	}
	return out, nil
}

type directTx struct{}

func (directTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	orders []*checkout.Order
}

func (p *recordingPublisher) Publish(_ context.Context, o *checkout.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, o)
	return nil
}

type memIdempotency struct {
	mu      sync.Mutex
	pending map[string]bool
	done    map[string]*postgres.IdempotencyReplay
	scopes  []string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{pending: map[string]bool{}, done: map[string]*postgres.IdempotencyReplay{}}
}

func (m *memIdempotency) Acquire(_ context.Context, key, scope, operation, requestHash string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes = append(m.scopes, scope)
	if r, ok := m.done[key]; ok {
		return r, nil
	}
	if m.pending[key] {
		return nil, apperror.NewConflict("in progress")
	}
	m.pending[key] = true
	return nil, nil
}

func (m *memIdempotency) Complete(_ context.Context, key string, status int, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
	if status >= 500 {
		return nil
	}
	m.done[key] = &postgres.IdempotencyReplay{StatusCode: status, ContentType: contentType, Body: append([]byte(nil), body...)}
	return nil
}

// --- harness ---

type testAPI struct {
	router    *gin.Engine
	publisher *recordingPublisher
	idem      *memIdempotency
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	provider, err := assortment.NewStaticProvider(context.Background(), assortment.SampleCategories())
	require.NoError(t, err)

	vila := client.NewClient("cli_vila", "Sorveteria Vila Nova")
	vila.DeliveryEnabled = true
	vila.DeliveryFee = types.MustMoney("18.00")
	vila.MinimumOrderForDelivery = types.MustMoney("100.00")
	clients := clientRepo{"cli_vila": vila, "cli_paraiso": client.NewClient("cli_paraiso", "Sorvetes Paraiso Ltda")}

	now := func() time.Time { return fixedNow }
	orderingSvc := ordering.NewService(ordering.ServiceConfig{
		Catalog: provider,
		Clients: clients,
		Store:   session.NewMemoryStore(session.Config{Now: now}),
		Now:     now,
	})

	api := &testAPI{publisher: &recordingPublisher{}, idem: newMemIdempotency()}
	checkoutSvc := checkout.NewService(checkout.ServiceConfig{
		Sessions:  orderingSvc,
		Numerator: &numerator.MockGenerator{},
		TxManager: directTx{},
		Publisher: api.publisher,
		Now:       now,
	})

	api.router = NewRouter(RouterConfig{
		Logger:      logger.Nop(),
		Ordering:    orderingSvc,
		Checkout:    checkoutSvc,
		Clients:     clients,
		Idempotency: api.idem,
		Version:     "test",
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) start(t *testing.T) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/order-sessions", gin.H{"channel": "admin"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.SessionResponse](t, w).ID
}

// --- tests ---

func TestAPI_OrderEntryFlow(t *testing.T) {
	api := newTestAPI(t)
	sid := api.start(t)
	base := "/api/v1/order-sessions/" + sid

	w := api.do(t, http.MethodPut, base+"/client", gin.H{"clientId": "cli_vila"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s := decode[dto.SessionResponse](t, w)
	require.NotNil(t, s.Client)
	assert.Equal(t, "100.00", s.Client.MinimumOrderForDelivery)

	w = api.do(t, http.MethodPost, base+"/items", gin.H{"productId": "prod_picole_morango", "delta": 5})
	s = decode[dto.SessionResponse](t, w)
	assert.Equal(t, "5.50", s.Summary.OrderSubtotal)
	assert.Equal(t, 5, s.Quantities["prod_picole_morango"])
	assert.Equal(t, ordering.CartBuilding, s.State)

	w = api.do(t, http.MethodPut, base+"/categories/cat3/sale-unit", gin.H{"saleUnitId": assortment.SaleUnitFullBox})
	s = decode[dto.SessionResponse](t, w)
	assert.Equal(t, assortment.SaleUnitFullBox, s.ActiveTabs["cat3"])
	assert.Zero(t, s.Quantities["prod_picole_morango"])

	w = api.do(t, http.MethodPost, base+"/items", gin.H{"productId": "prod_picole_morango", "delta": 2})
	s = decode[dto.SessionResponse](t, w)
	assert.Equal(t, "58.30", s.Summary.OrderSubtotal)
	require.Len(t, s.Summary.Groups, 1)
	assert.Len(t, s.Summary.Groups[0].Lines, 2)
	assert.Equal(t, 53, s.Summary.TotalBaseUnits)

	w = api.do(t, http.MethodPut, base+"/fulfillment", gin.H{"mode": "delivery"})
	s = decode[dto.SessionResponse](t, w)
	require.NotNil(t, s.Eligibility)
	assert.False(t, s.Eligibility.IsEligible)
	assert.Equal(t, "41.70", s.Eligibility.Shortfall)
	assert.Equal(t, "76.30", s.Summary.GrandTotal)

	w = api.do(t, http.MethodPut, base+"/discount", gin.H{"value": "8,30", "reason": "Cliente fiel"})
	s = decode[dto.SessionResponse](t, w)
	assert.Equal(t, "68.00", s.Summary.GrandTotal)
	require.NotNil(t, s.ManualDiscount)
	assert.Equal(t, "8.30", s.ManualDiscount.Value)

	// below the delivery minimum
	w = api.do(t, http.MethodPost, base+"/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeBelowDeliveryMinimum, decode[dto.ErrorResponse](t, w).Code)

	api.do(t, http.MethodPost, base+"/items", gin.H{"productId": "prod_balde_flocos", "delta": 2})

	payment := gin.H{"initialPayment": gin.H{"amount": "50.00", "method": "pix", "reference": "E2E-1"}}
	w = api.do(t, http.MethodPost, base+"/checkout", payment, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[dto.OrderResponse](t, w)
	assert.Equal(t, "PED-2026-00001", order.Number)
	assert.Equal(t, "102.30", order.Subtotal)
	assert.Equal(t, "8.30", order.Discount)
	assert.Equal(t, "18.00", order.DeliveryFee)
	assert.Equal(t, "112.00", order.GrandTotal)
	assert.Equal(t, "62.00", order.AmountDue)
	require.NotNil(t, order.Payment)
	assert.Equal(t, checkout.PaymentPIX, order.Payment.Method)
	assert.Len(t, api.publisher.orders, 1)

	// a retried checkout replays the stored response
	replay := api.do(t, http.MethodPost, base+"/checkout", payment, "Idempotency-Key", "k-1")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, w.Body.String(), replay.Body.String())
	assert.Len(t, api.publisher.orders, 1)
	assert.Equal(t, []string{sid, sid}, api.idem.scopes)

	w = api.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_SessionErrors(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/order-sessions", gin.H{"channel": "kiosk"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/order-sessions", gin.H{"channel": "portal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/order-sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/order-sessions/0192f5a0-0000-7000-8000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decode[dto.ErrorResponse](t, w).Code)

	sid := api.start(t)
	base := "/api/v1/order-sessions/" + sid

	w = api.do(t, http.MethodPost, base+"/items", gin.H{"productId": "prod_nao_existe", "delta": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, base+"/items", gin.H{"productId": "prod_picole_morango", "delta": 10000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode[dto.ErrorResponse](t, w).Code)

	w = api.do(t, http.MethodPut, base+"/fulfillment", gin.H{"mode": "pickup", "requestedDate": "17/10/2026"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPut, base+"/discount", gin.H{"value": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, base+"/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "client is required")

	w = api.do(t, http.MethodPut, base+"/client", gin.H{"clientId": "cli_paraiso"})
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodPut, base+"/fulfillment", gin.H{"mode": "delivery"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeDeliveryDisabled, decode[dto.ErrorResponse](t, w).Code)

	w = api.do(t, http.MethodPost, base+"/checkout", nil)
	assert.Equal(t, apperror.CodeEmptyCart, decode[dto.ErrorResponse](t, w).Code)
}

func TestAPI_ClearAndCancel(t *testing.T) {
	api := newTestAPI(t)
	sid := api.start(t)
	base := "/api/v1/order-sessions/" + sid

	api.do(t, http.MethodPost, base+"/items", gin.H{"productId": "prod_copo_baunilha", "delta": 3})
	api.do(t, http.MethodPut, base+"/discount", gin.H{"value": "1.00"})

	w := api.do(t, http.MethodDelete, base+"/discount", nil)
	s := decode[dto.SessionResponse](t, w)
	assert.Nil(t, s.ManualDiscount)
	assert.Equal(t, "7.50", s.Summary.GrandTotal)

	w = api.do(t, http.MethodDelete, base+"/items", nil)
	s = decode[dto.SessionResponse](t, w)
	assert.Equal(t, ordering.CartEmpty, s.State)
	assert.Empty(t, s.Summary.Groups)

	w = api.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_CatalogAndClients(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cat := decode[dto.CatalogResponse](t, w)
	assert.Len(t, cat.Categories, 4)
	assert.Equal(t, 5, cat.ProductCount)

	w = api.do(t, http.MethodGet, "/api/v1/catalog?search=MORANGO", nil)
	cat = decode[dto.CatalogResponse](t, w)
	require.Len(t, cat.Categories, 1)
	require.Len(t, cat.Categories[0].Products, 1)
	assert.Equal(t, "1.10", cat.Categories[0].Products[0].BasePrice)
	assert.Len(t, cat.Categories[0].SaleUnits, 3)

	w = api.do(t, http.MethodGet, "/api/v1/clients?search=vila", nil)
	list := decode[dto.ListResponse[dto.ClientResponse]](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "18.00", list.Items[0].DeliveryFee)

	w = api.do(t, http.MethodGet, "/api/v1/clients/cli_nao_existe", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Health(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAPI_RecoversCatalogIntegrityPanic(t *testing.T) {
	api := newTestAPI(t)
	api.router.GET("/boom", func(*gin.Context) {
		panic(apperror.NewCatalogIntegrity("sale unit is not declared by category"))
	})
	api.router.GET("/oops", func(*gin.Context) { panic("nil map") })

	w := api.do(t, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeCatalogIntegrity, decode[dto.ErrorResponse](t, w).Code)

	w = api.do(t, http.MethodGet, "/oops", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, apperror.CodeInternal, resp.Code)
	assert.NotContains(t, w.Body.String(), "nil map")
}
