// =============================================================================
// Receipt Normalizer - Schema Validator
// =============================================================================
//
// This module checks that a Receipt conforms structurally to the published
// shape. Rules live as `validate` struct tags on internal/types and are
// enforced with go-playground/validator, the same engine gin uses for its
// `binding` tags.
//
// ISSUE FORMAT:
//   Every problem becomes one string "<dotted.path> - <message>", where the
//   path uses JSON field names and array indexes, e.g.
//     items.0.quantity - must be greater than 0
//
// ORDERING:
//   Issues follow struct field order, then array index order, so the same
//   receipt always yields the same list.
//
// ERROR HANDLING:
//   Problems are collected, never returned as errors. Only a malformed call
//   (a nil receipt) is reported as an issue on the root path.
//
// =============================================================================

package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// rootPath names the document itself in issues that have no field path.
const rootPath = "receipt"

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator performs structural validation of receipts. A Validator is safe
// for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator that reports JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Validator{validate: v}
}

// defaultValidator backs the package-level helpers. validator.Validate caches
// struct metadata, so one shared instance is kept.
var defaultValidator = NewValidator()

// jsonFieldName returns the JSON name of a struct field for issue paths.
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// =============================================================================
// STRUCTURAL VALIDATION
// =============================================================================

// Structure validates an assembled receipt and returns its structural issues.
func (v *Validator) Structure(r *types.Receipt) []string {
	if r == nil {
		return []string{rootPath + " - is required"}
	}

	err := v.validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("%s - %v", rootPath, err)}
	}

	issues := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, fmt.Sprintf("%s - %s", issuePath(fe.Namespace()), describe(fe)))
	}
	return issues
}

// Document decodes an external JSON document as a receipt and validates it.
// Type mismatches found while decoding are reported ahead of the structural
// issues. The decoded receipt is nil when the document is not valid JSON or
// is not an object.
func (v *Validator) Document(data []byte) (*types.Receipt, []string) {
	var r types.Receipt
	var issues []string

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&r); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, []string{fmt.Sprintf("%s - invalid JSON: %v", rootPath, err)}
		}
		if typeErr.Field == "" {
			return nil, []string{fmt.Sprintf("%s - expected object, got %s", rootPath, typeErr.Value)}
		}
		issues = append(issues, fmt.Sprintf("%s - expected %s, got %s", typeErr.Field, jsonKind(typeErr.Type), typeErr.Value))
	}
	if dec.More() {
		return nil, []string{rootPath + " - unexpected data after document"}
	}

	issues = append(issues, v.Structure(&r)...)
	return &r, issues
}

// =============================================================================
// PACKAGE-LEVEL HELPERS
// =============================================================================

// Structure validates r with the shared Validator.
func Structure(r *types.Receipt) []string {
	return defaultValidator.Structure(r)
}

// ValidateDocument validates an external JSON document with the shared
// Validator.
func ValidateDocument(data []byte) (*types.Receipt, []string) {
	return defaultValidator.Document(data)
}

// =============================================================================
// ISSUE RENDERING
// =============================================================================

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// issuePath turns "Receipt.items[0].quantity" into "items.0.quantity".
func issuePath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

// describe renders a field error as a short message.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "len":
		return fmt.Sprintf("must have length %s, got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "hexadecimal":
		return "must be a hexadecimal string"
	case "datetime":
		return fmt.Sprintf("must match layout %s, got %q", fe.Param(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

// jsonKind names a Go type by the JSON kind it decodes from.
func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Pointer:
		return jsonKind(t.Elem())
	default:
		return t.String()
	}
}
