package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatID(t *testing.T) {
	tests := []struct {
		id       any
		expected string
	}{
		{nil, ""},
		{"abc", "abc"},
		{42, "42"},
		{int64(7), "7"},
		{float64(3), "3"},
		{1.5, "1.5"},
		{json.Number("12"), "12"},
	}

	for _, tt := range tests {
		if got := FormatID(tt.id); got != tt.expected {
			t.Errorf("FormatID(%v) = %q, expected %q", tt.id, got, tt.expected)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 1, 14, 30, 45, 123456789, time.FixedZone("CET", 3600))

	if got := FormatTimestamp(ts); got != "2024-03-01T13:30:45.123Z" {
		t.Errorf("Unexpected timestamp %s", got)
	}
}

func TestDocumentClone(t *testing.T) {
	doc := Document{
		"id":       1,
		"group":    Document{"id": 2, "name": "Platform"},
		"services": []any{map[string]any{"id": 3}},
	}

	clone := doc.Clone()
	clone["group"].(Document)["name"] = "Changed"
	clone["services"].([]any)[0].(map[string]any)["id"] = 4

	if doc["group"].(Document)["name"] != "Platform" {
		t.Error("Clone should copy nested documents")
	}
	if doc["services"].([]any)[0].(map[string]any)["id"] != 3 {
		t.Error("Clone should copy nested slices")
	}
	if Document(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestRefJSON(t *testing.T) {
	hydrated := Ref{ID: 2, Doc: Document{"id": 2, "name": "Platform"}}
	data, err := json.Marshal(hydrated)
	if err != nil {
		t.Fatal(err)
	}
	var back Ref
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Hydrated() || back.Doc["name"] != "Platform" || FormatID(back.ID) != "2" {
		t.Errorf("Unexpected hydrated ref %+v", back)
	}

	data, err = json.Marshal(Ref{ID: "abc"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"abc"` {
		t.Errorf("Bare ref should marshal to its id, got %s", data)
	}
	back = Ref{}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Hydrated() || back.ID != "abc" {
		t.Errorf("Unexpected bare ref %+v", back)
	}
}

func TestDecode(t *testing.T) {
	doc := Document{
		"id":          int64(5),
		"name":        "API",
		"slug":        "api",
		"status":      "degraded",
		"group":       Document{"id": int64(2), "name": "Platform"},
		"createdAt":   "2024-01-02T03:04:05.000Z",
		"updatedAt":   "2024-01-03T03:04:05.000Z",
		"unknownKeys": "are ignored",
	}

	service, err := Decode[Service](doc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if service.ID != "5" {
		t.Errorf("Expected id '5', got '%s'", service.ID)
	}
	if service.Status != ServiceDegraded {
		t.Errorf("Expected status degraded, got %s", service.Status)
	}
	if !service.Group.Hydrated() || service.Group.Doc["name"] != "Platform" {
		t.Errorf("Expected hydrated group, got %+v", service.Group)
	}
	if !service.CreatedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("Unexpected createdAt %v", service.CreatedAt)
	}
}

func TestDecodeBareRelations(t *testing.T) {
	incident, err := Decode[Incident](Document{
		"id":               "inc",
		"title":            "Outage",
		"affectedServices": []any{int64(1), Document{"id": int64(2)}},
		"createdAt":        "2024-01-02T03:04:05.000Z",
		"updatedAt":        "2024-01-02T03:04:05.000Z",
	})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(incident.AffectedServices) != 2 {
		t.Fatalf("Expected 2 affected services, got %d", len(incident.AffectedServices))
	}
	if incident.AffectedServices[0].Hydrated() || FormatID(incident.AffectedServices[0].ID) != "1" {
		t.Errorf("Expected bare id ref, got %+v", incident.AffectedServices[0])
	}
	if !incident.AffectedServices[1].Hydrated() {
		t.Error("Expected hydrated ref")
	}

	settings, err := Decode[Settings](Document{"id": "settings", "logoDark": 12})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if settings.LogoDark == nil || FormatID(settings.LogoDark.ID) != "12" || settings.LogoLight != nil {
		t.Errorf("Unexpected logos %+v %+v", settings.LogoLight, settings.LogoDark)
	}
}
