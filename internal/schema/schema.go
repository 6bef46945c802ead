// =============================================================================
// Receipt Normalizer - Schema Artifact Generator
// =============================================================================
//
// This module emits a JSON Schema (draft 2020-12) describing the Receipt
// shape, so that external consumers can validate documents without this
// module's code.
//
// GENERATION:
//   The schema is derived from internal/types by reflection, so it cannot drift
//   from the Go types:
//   - json tags give property names; fields without omitempty are required
//   - pointer fields without omitempty are nullable
//   - validate tags become restrictions (minimum, minLength, format, ...)
//   Every named struct becomes an entry under $defs.
//
// VERSIONING:
//   The version is embedded in $id, e.g. urn:receipt-normalizer:receipt:1.0.0
//
// =============================================================================

package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// Draft is the JSON Schema dialect of the emitted document.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// ID returns the $id of the schema for a version.
func ID(version string) string {
	return "urn:receipt-normalizer:receipt:" + version
}

// node is one schema object. encoding/json sorts map keys, so output is
// stable.
type node map[string]any

// Document returns the indented schema document for version, defaulting to
// types.SchemaVersion.
func Document(version string) ([]byte, error) {
	if version == "" {
		version = types.SchemaVersion
	}

	g := &generator{defs: make(map[string]node)}
	root := g.object(reflect.TypeOf(types.Receipt{}))
	root["$schema"] = Draft
	root["$id"] = ID(version)
	root["title"] = "Receipt"
	root["description"] = fmt.Sprintf("Normalized purchase receipt, schema version %s.", version)
	root["$defs"] = g.defs

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	return append(data, '\n'), nil
}

// =============================================================================
// REFLECTION WALK
// =============================================================================

type generator struct {
	defs map[string]node
}

// object describes a struct type as an object schema.
func (g *generator) object(t reflect.Type) node {
	properties := node{}
	required := []string{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		omitEmpty := strings.Contains(opts, "omitempty")

		s := g.schemaFor(field.Type, splitRules(field.Tag.Get("validate")))
		if field.Type.Kind() == reflect.Pointer && !omitEmpty {
			s = nullable(s)
		}

		properties[name] = s
		if !omitEmpty {
			required = append(required, name)
		}
	}

	return node{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// schemaFor describes t, applying the validate rules that target it.
func (g *generator) schemaFor(t reflect.Type, rules []string) node {
	switch t.Kind() {
	case reflect.Pointer:
		return g.schemaFor(t.Elem(), rules)

	case reflect.Struct:
		name := t.Name()
		if _, seen := g.defs[name]; !seen {
			g.defs[name] = node{}
			g.defs[name] = g.object(t)
		}
		return node{"$ref": "#/$defs/" + name}

	case reflect.Slice, reflect.Array:
		return node{
			"type":  "array",
			"items": g.schemaFor(t.Elem(), elementRules(rules)),
		}

	case reflect.String:
		return restrict(node{"type": "string"}, rules)

	case reflect.Bool:
		return node{"type": "boolean"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return restrict(node{"type": "integer"}, rules)

	case reflect.Float32, reflect.Float64:
		return restrict(node{"type": "number"}, rules)

	default:
		return node{}
	}
}

// nullable widens s to also accept null.
func nullable(s node) node {
	if typ, ok := s["type"].(string); ok {
		s["type"] = []string{typ, "null"}
		return s
	}
	return node{"anyOf": []node{s, {"type": "null"}}}
}

// =============================================================================
// VALIDATE TAG TRANSLATION
// =============================================================================

func splitRules(tag string) []string {
	if tag == "" {
		return nil
	}
	return strings.Split(tag, ",")
}

// elementRules returns the rules after "dive", which apply to slice elements.
func elementRules(rules []string) []string {
	for i, r := range rules {
		if r == "dive" {
			return rules[i+1:]
		}
	}
	return nil
}

// datetimeFormats maps validate datetime layouts onto schema keywords.
var datetimeFormats = map[string]node{
	"2006-01-02T15:04:05.000Z07:00": {"format": "date-time"},
	"2006-01-02":                    {"format": "date"},
	"15:04":                         {"pattern": `^\d{2}:\d{2}$`},
}

// restrict turns scalar validate rules into schema restrictions. Rules
// after "dive" belong to elements and are skipped here.
func restrict(s node, rules []string) node {
	for _, rule := range rules {
		key, param, _ := strings.Cut(rule, "=")
		switch key {
		case "dive":
			return s
		case "required":
			if s["type"] == "string" {
				s["minLength"] = 1
			}
		case "gt":
			s["exclusiveMinimum"] = json.Number(param)
		case "gte":
			s["minimum"] = json.Number(param)
		case "len":
			s["minLength"] = json.Number(param)
			s["maxLength"] = json.Number(param)
		case "hexadecimal":
			s["pattern"] = "^[0-9a-fA-F]+$"
		case "datetime":
			for k, v := range datetimeFormats[param] {
				s[k] = v
			}
		}
	}
	return s
}
