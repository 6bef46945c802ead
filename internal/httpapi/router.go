// =============================================================================
// Receipt Normalizer - HTTP API
// =============================================================================
//
// This module exposes the pipeline over HTTP.
//
// ROUTES:
//   POST /v1/receipts/transform   raw payload -> {receipt, report}
//   POST /v1/receipts/validate    normalized receipt -> report
//   GET  /v1/schema               JSON Schema of the receipt document
//   GET  /healthz                 liveness
//
// STATUS CODES:
//   400  body is not a JSON document, or a query flag is not a boolean
//   422  strict validation failed (report in data), or redaction left
//        sensitive digits behind (offending fields in errors)
//   429  the client exceeded the configured rate limit
//
// The transform query flags redact, enforce and strict override the
// configured defaults per request.
//
// =============================================================================

package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ginjaninja78/receipt-normalizer/internal/converter"
	"github.com/ginjaninja78/receipt-normalizer/internal/redact"
	"github.com/ginjaninja78/receipt-normalizer/internal/schema"
	"github.com/ginjaninja78/receipt-normalizer/internal/types"
	"github.com/ginjaninja78/receipt-normalizer/internal/validation"
)

// MaxBodyBytes bounds the size of a request body.
const MaxBodyBytes = 10 << 20

// Options holds the defaults applied to every request.
type Options struct {
	SchemaVersion    string
	Strict           bool
	Redact           bool
	EnforceRedaction bool

	// AllowedOrigins enables CORS for these origins. Empty disables CORS.
	AllowedOrigins []string

	// RateLimit is the requests per second allowed per client IP, with
	// bursts of RateBurst. Zero disables rate limiting.
	RateLimit float64
	RateBurst int
}

// TransformResponse is the data of a successful transform.
type TransformResponse struct {
	Receipt *types.Receipt    `json:"receipt"`
	Report  validation.Report `json:"report"`
}

type handler struct {
	opts   Options
	logger *slog.Logger
}

// NewRouter builds the gin engine serving the API.
func NewRouter(opts Options, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{opts: opts, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	if len(opts.AllowedOrigins) > 0 {
		router.Use(corsMiddleware(opts.AllowedOrigins))
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		router.Use(newClientLimiter(opts.RateLimit, burst).middleware())
	}

	router.GET("/healthz", healthHandler)

	v1 := router.Group("/v1")
	v1.POST("/receipts/transform", h.transform)
	v1.POST("/receipts/validate", h.validate)
	v1.GET("/schema", h.schema)

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// =============================================================================
// HANDLERS
// =============================================================================

func (h *handler) transform(c *gin.Context) {
	strict, err := queryBool(c, "strict", h.opts.Strict)
	if err != nil {
		fail(c, err)
		return
	}
	enforce, err := queryBool(c, "enforce", h.opts.EnforceRedaction)
	if err != nil {
		fail(c, err)
		return
	}
	doRedact, err := queryBool(c, "redact", h.opts.Redact || enforce)
	if err != nil {
		fail(c, err)
		return
	}

	body, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	raw, err := converter.DecodePayload(body)
	if err != nil {
		fail(c, badRequest("Invalid payload", []string{err.Error()}))
		return
	}

	receipt := converter.Transform(raw, converter.Options{
		SchemaVersion: h.opts.SchemaVersion,
		RunID:         requestID(c),
	})
	report := validation.ValidateReceipt(receipt)

	if strict && !report.Clean() {
		fail(c, unprocessable("Receipt rejected by strict validation", report.Issues, report))
		return
	}

	if doRedact || enforce {
		err := redact.Redact(receipt, redact.Options{Enforce: enforce})
		var violation *redact.PIIViolationError
		if errors.As(err, &violation) {
			fail(c, unprocessable("Redaction left sensitive data", violation.Fields, nil))
			return
		}
		if err != nil {
			fail(c, err)
			return
		}
	}

	h.logger.Debug("receipt transformed",
		"request_id", requestID(c),
		"items", len(receipt.Items),
		"issues", len(report.Issues))
	ok(c, "Receipt transformed", TransformResponse{Receipt: receipt, Report: report})
}

func (h *handler) validate(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}

	r, report := validation.DocumentReport(body)
	if r == nil {
		fail(c, badRequest("Invalid receipt document", report.Issues))
		return
	}

	message := "Receipt is valid"
	if !report.Clean() {
		message = "Receipt has issues"
	}
	ok(c, message, report)
}

func (h *handler) schema(c *gin.Context) {
	version := c.DefaultQuery("version", h.opts.SchemaVersion)
	doc, err := schema.Document(version)
	if err != nil {
		fail(c, fmt.Errorf("failed to build schema: %w", err))
		return
	}
	c.Data(http.StatusOK, "application/schema+json", doc)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &APIError{Code: http.StatusRequestEntityTooLarge, Message: "Request body too large"}
		}
		return nil, badRequest("Failed to read request body", nil)
	}
	return body, nil
}

func queryBool(c *gin.Context, name string, fallback bool) (bool, error) {
	value, present := c.GetQuery(name)
	if !present || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, badRequest(fmt.Sprintf("Query parameter %s must be a boolean", name), nil)
	}
	return b, nil
}
