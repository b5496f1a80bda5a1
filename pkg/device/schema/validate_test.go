package schema

import (
	"encoding/json"
	"sync"
	"testing"
)

func lockSchema() json.RawMessage {
	return json.RawMessage(`{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {
			"vehicle_lock": {"type": "string", "enum": ["locked", "unlocked"]},
			"telemetry_interval_s": {"type": "string", "pattern": "^[1-9][0-9]*$"}
		},
		"additionalProperties": false
	}`)
}

func TestValidateParams_Valid(t *testing.T) {
	v := NewValidator()

	err := v.ValidateParams(lockSchema(), map[string]string{
		"vehicle_lock":         "locked",
		"telemetry_interval_s": "30",
	})
	if err != nil {
		t.Errorf("expected valid params, got: %v", err)
	}
}

func TestValidateParams_Subset(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateParams(lockSchema(), map[string]string{"vehicle_lock": "unlocked"}); err != nil {
		t.Errorf("expected valid params, got: %v", err)
	}
}

func TestValidateParams_InvalidEnum(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateParams(lockSchema(), map[string]string{"vehicle_lock": "open"}); err == nil {
		t.Error("expected validation error for invalid enum value")
	}
}

func TestValidateParams_PatternMismatch(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateParams(lockSchema(), map[string]string{"telemetry_interval_s": "0"}); err == nil {
		t.Error("expected validation error for interval 0")
	}
}

func TestValidateParams_UnknownParam(t *testing.T) {
	v := NewValidator()

	err := v.ValidateParams(lockSchema(), map[string]string{
		"vehicle_lock": "locked",
		"horn":         "on",
	})
	if err == nil {
		t.Error("expected validation error for unknown parameter")
	}
}

func TestValidate_EmptySchemaAcceptsAll(t *testing.T) {
	v := NewValidator()

	for _, doc := range []json.RawMessage{nil, json.RawMessage(`{}`), json.RawMessage(`null`)} {
		if err := v.Validate(doc, map[string]any{"anything": 1}); err != nil {
			t.Errorf("schema %q: expected no validation, got: %v", doc, err)
		}
	}
}

func TestValidate_InvalidSchema(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(json.RawMessage(`{not json`), map[string]any{}); err == nil {
		t.Error("expected error for malformed schema")
	}
}

func TestCompile(t *testing.T) {
	v := NewValidator()

	if err := v.Compile(BikeParams); err != nil {
		t.Errorf("expected bike params to compile, got: %v", err)
	}
	if err := v.Compile(nil); err != nil {
		t.Errorf("expected empty schema to compile, got: %v", err)
	}
	if err := v.Compile(json.RawMessage(`[1,`)); err == nil {
		t.Error("expected error for malformed schema")
	}
}

func TestBikeParams(t *testing.T) {
	v := NewValidator()

	valid := map[string]string{
		"vehicle_lock":        "locked",
		"battery_lock_status": "unlocked",
		"max_speed_kmh":       "25",
		"alarm":               "off",
	}
	if err := v.ValidateParams(BikeParams, valid); err != nil {
		t.Errorf("expected valid bike params, got: %v", err)
	}
	if err := v.ValidateParams(BikeParams, map[string]string{"max_speed_kmh": "250"}); err == nil {
		t.Error("expected validation error for three digit speed limit")
	}
}

func TestParamNames(t *testing.T) {
	names, err := ParamNames(lockSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "telemetry_interval_s" || names[1] != "vehicle_lock" {
		t.Errorf("unexpected names: %v", names)
	}

	open, err := ParamNames(json.RawMessage(`{"type": "object"}`))
	if err != nil || open != nil {
		t.Errorf("open schema should not restrict names, got %v, %v", open, err)
	}
}

func TestCheckParamNames(t *testing.T) {
	if err := CheckParamNames(lockSchema(), []string{"vehicle_lock"}); err != nil {
		t.Errorf("expected known name, got: %v", err)
	}
	if err := CheckParamNames(lockSchema(), []string{"vehicle_lock", "horn"}); err == nil {
		t.Error("expected error for unknown name")
	}
	if err := CheckParamNames(nil, []string{"horn"}); err != nil {
		t.Errorf("empty schema should accept any name, got: %v", err)
	}
}

func TestValidator_CachesCompiledSchema(t *testing.T) {
	v := NewValidator()
	schema := lockSchema()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = v.ValidateParams(schema, map[string]string{"vehicle_lock": "locked"})
		}()
	}
	wg.Wait()

	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.cache) != 1 {
		t.Errorf("expected 1 cached schema, got %d", len(v.cache))
	}
}
