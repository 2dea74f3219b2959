package gate

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseParams_Empty(t *testing.T) {
	for _, text := range []string{"", "  ", "\n"} {
		params, err := ParseParams(text)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(params) != 0 {
			t.Errorf("expected empty map, got %v", params)
		}
	}
}

func TestParseParams_StrictJSON(t *testing.T) {
	params, err := ParseParams(`{"name":"value","count":3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["name"] != "value" {
		t.Errorf("expected name=value, got %v", params["name"])
	}
	if params["count"] != float64(3) {
		t.Errorf("expected count=3, got %v", params["count"])
	}
}

func TestParseParams_RepairsBareValue(t *testing.T) {
	params, err := ParseParams(`{"name":cardiomyopathy}`)
	if err != nil {
		t.Fatalf("expected repair to succeed, got %v", err)
	}
	if params["name"] != "cardiomyopathy" {
		t.Errorf("expected repaired value, got %v", params["name"])
	}
}

func TestParseParams_RepairKeepsJSONLiterals(t *testing.T) {
	params, err := ParseParams(`{"active":true,"label":Cardio}`)
	if err != nil {
		t.Fatalf("expected repair to succeed, got %v", err)
	}
	if params["active"] != true {
		t.Errorf("true must stay a boolean, got %T %v", params["active"], params["active"])
	}
	if params["label"] != "Cardio" {
		t.Errorf("expected repaired label, got %v", params["label"])
	}
}

func TestParseParams_UnrepairableFails(t *testing.T) {
	_, err := ParseParams(`{not json at all`)
	gerr, ok := err.(*Error)
	if !ok || gerr.Kind != KindMalformedParameters {
		t.Fatalf("expected malformed_parameters, got %v", err)
	}
	// The message must carry both the original and the repaired attempt.
	if !strings.Contains(gerr.Detail, "{not json at all") {
		t.Errorf("detail should include the original text: %q", gerr.Detail)
	}
	if !strings.Contains(gerr.Detail, "repair") {
		t.Errorf("detail should include the repair attempt: %q", gerr.Detail)
	}
}

func TestParseParamsRaw_RoundTrip(t *testing.T) {
	// The same parameters parse identically whether sent as a JSON
	// object or as a string containing one.
	asObject, err := ParseParamsRaw(json.RawMessage(`{"name":"value"}`))
	if err != nil {
		t.Fatalf("object form: %v", err)
	}
	asString, err := ParseParamsRaw(json.RawMessage(`"{\"name\":\"value\"}"`))
	if err != nil {
		t.Fatalf("string form: %v", err)
	}
	if asObject["name"] != asString["name"] || asObject["name"] != "value" {
		t.Errorf("forms disagree: object=%v string=%v", asObject, asString)
	}
}

func TestParseParamsRaw_Empty(t *testing.T) {
	params, err := ParseParamsRaw(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(params) != 0 {
		t.Errorf("expected empty map, got %v", params)
	}
}
