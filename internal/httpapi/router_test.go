package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{
	"id": "r-7",
	"total_price": 20,
	"total_tax": 1.82,
	"store": {"phone": "02 9000 1234"},
	"basket": {"items": [{"name": "Socks", "quantity_purchased": 2, "unit_price": 10}]},
	"payments": [{"method": "VISA (**** 1234)", "amount": 20}]
}`

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Meta    Meta            `json:"meta"`
}

func testRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthz(t *testing.T) {
	rec, _ := do(t, testRouter(Options{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTransform(t *testing.T) {
	rec, env := do(t, testRouter(Options{}), http.MethodPost, "/v1/receipts/transform", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, "req-1", env.Meta.RequestID)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))

	var data TransformResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotNil(t, data.Receipt)
	assert.Equal(t, "r-7", *data.Receipt.Identities.ReceiptID)
	assert.Equal(t, "req-1", *data.Receipt.Meta.RunID)
	assert.Equal(t, "02 9000 1234", *data.Receipt.Merchant.Phone)
	assert.True(t, data.Report.ValidationSuccess)
	assert.Empty(t, data.Report.Issues)
}

func TestTransformRedactQuery(t *testing.T) {
	rec, env := do(t, testRouter(Options{}), http.MethodPost, "/v1/receipts/transform?redact=true", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var data TransformResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "****1234", *data.Receipt.Merchant.Phone)
}

func TestTransformErrors(t *testing.T) {
	leaky := strings.Replace(payload, `VISA (**** 1234)`, `VISA 4111 1111 1111 1111`, 1)
	mismatched := strings.Replace(payload, `"total_price": 20`, `"total_price": 25`, 1)

	tests := []struct {
		name       string
		opts       Options
		target     string
		body       string
		wantStatus int
		wantErrors []string
	}{
		{
			name:       "malformed JSON",
			target:     "/v1/receipts/transform",
			body:       `{"id": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid flag",
			target:     "/v1/receipts/transform?strict=maybe",
			body:       payload,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "strict from query",
			target:     "/v1/receipts/transform?strict=true",
			body:       mismatched,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "strict from options",
			opts:       Options{Strict: true},
			target:     "/v1/receipts/transform",
			body:       mismatched,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "PII violation",
			target:     "/v1/receipts/transform?enforce=1",
			body:       leaky,
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: []string{"payments.0.rawMethod"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, testRouter(tt.opts), http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			if tt.wantErrors != nil {
				assert.Equal(t, tt.wantErrors, env.Errors)
			}
		})
	}
}

func TestTransformStrictReport(t *testing.T) {
	mismatched := strings.Replace(payload, `"total_price": 20`, `"total_price": 25`, 1)
	rec, env := do(t, testRouter(Options{}), http.MethodPost, "/v1/receipts/transform?strict=true", mismatched)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var report struct {
		ValidationSuccess bool     `json:"validationSuccess"`
		Issues            []string `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.True(t, report.ValidationSuccess)
	assert.Equal(t, env.Errors, report.Issues)
	assert.NotEmpty(t, report.Issues)
}

func TestValidate(t *testing.T) {
	router := testRouter(Options{})
	_, transformed := do(t, router, http.MethodPost, "/v1/receipts/transform", payload)
	var data TransformResponse
	require.NoError(t, json.Unmarshal(transformed.Data, &data))
	doc, err := json.Marshal(data.Receipt)
	require.NoError(t, err)

	rec, env := do(t, router, http.MethodPost, "/v1/receipts/validate", string(doc))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Receipt is valid", env.Message)

	rec, env = do(t, router, http.MethodPost, "/v1/receipts/validate", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"receipt - expected object, got array"}, env.Errors)
}

func TestSchema(t *testing.T) {
	rec, _ := do(t, testRouter(Options{SchemaVersion: "2.0.0"}), http.MethodGet, "/v1/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/schema+json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "urn:receipt-normalizer:receipt:2.0.0", doc["$id"])
}

func TestCORSPreflight(t *testing.T) {
	router := testRouter(Options{AllowedOrigins: []string{"https://receipts.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/receipts/transform", nil)
	req.Header.Set("Origin", "https://receipts.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://receipts.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	router := testRouter(Options{RateLimit: 1, RateBurst: 1})

	rec, _ := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestClientLimiterSweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	l := newClientLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))

	now = now.Add(clientTTL + time.Second)
	assert.True(t, l.allow("b"))
	assert.Len(t, l.clients, 1, "idle clients were swept")
}
