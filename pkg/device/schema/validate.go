// Package schema checks command parameters against a device's parameter
// JSON Schema.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// BikeParams is the parameter schema assigned to devices registered
// without one. Parameter values travel as strings on the wire.
var BikeParams = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"vehicle_lock": {"type": "string", "enum": ["locked", "unlocked"]},
		"battery_lock_status": {"type": "string", "enum": ["locked", "unlocked"]},
		"telemetry_interval_s": {"type": "string", "pattern": "^[1-9][0-9]{0,4}$"},
		"max_speed_kmh": {"type": "string", "pattern": "^[0-9]{1,2}$"},
		"alarm": {"type": "string", "enum": ["on", "off"]}
	},
	"additionalProperties": false
}`)

// Validator validates JSON payloads against JSON Schema documents.
// It caches compiled schemas keyed by their raw bytes.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewValidator creates a new Validator with an empty cache.
func NewValidator() *Validator {
	return &Validator{
		cache: make(map[string]*jsonschema.Schema),
	}
}

func isEmpty(schemaDoc json.RawMessage) bool {
	s := string(schemaDoc)
	return len(schemaDoc) == 0 || s == "{}" || s == "null"
}

// Validate validates payload against the given JSON Schema document.
// An empty schema accepts everything.
func (v *Validator) Validate(schemaDoc json.RawMessage, payload map[string]any) error {
	if isEmpty(schemaDoc) {
		return nil
	}

	compiled, err := v.compile(schemaDoc)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	return compiled.Validate(payload)
}

// Compile checks that schemaDoc is a usable schema and caches it.
func (v *Validator) Compile(schemaDoc json.RawMessage) error {
	if isEmpty(schemaDoc) {
		return nil
	}
	_, err := v.compile(schemaDoc)
	return err
}

// ValidateParams validates setParams values.
func (v *Validator) ValidateParams(schemaDoc json.RawMessage, params map[string]string) error {
	payload := make(map[string]any, len(params))
	for k, val := range params {
		payload[k] = val
	}
	return v.Validate(schemaDoc, payload)
}

// ParamNames lists the properties declared by the schema in sorted order,
// or nil when the schema does not restrict names.
func ParamNames(schemaDoc json.RawMessage) ([]string, error) {
	if isEmpty(schemaDoc) {
		return nil, nil
	}
	var doc struct {
		Properties           map[string]json.RawMessage `json:"properties"`
		AdditionalProperties *bool                      `json:"additionalProperties"`
	}
	if err := json.Unmarshal(schemaDoc, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	if doc.AdditionalProperties == nil || *doc.AdditionalProperties {
		return nil, nil
	}

	names := make([]string, 0, len(doc.Properties))
	for name := range doc.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CheckParamNames returns an error naming the first entry of names the
// schema does not declare.
func CheckParamNames(schemaDoc json.RawMessage, names []string) error {
	known, err := ParamNames(schemaDoc)
	if err != nil || known == nil {
		return err
	}
	for _, name := range names {
		i := sort.SearchStrings(known, name)
		if i == len(known) || known[i] != name {
			return fmt.Errorf("unknown parameter %q", name)
		}
	}
	return nil
}

func (v *Validator) compile(schemaDoc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schemaDoc)

	v.mu.RLock()
	if s, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return s, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.cache[key]; ok {
		return s, nil
	}

	var schemaMap any
	if err := json.Unmarshal(schemaDoc, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("params.json", schemaMap); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	compiled, err := c.Compile("params.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}
