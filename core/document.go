package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Canonical document keys
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Document is a record in canonical shape. It always carries id, createdAt
// and updatedAt; relations are either nested Documents or bare identifiers.
type Document map[string]any

// ID returns the document identifier
func (d Document) ID() any {
	return d[FieldID]
}

// IDString returns the identifier formatted as a string
func (d Document) IDString() string {
	return FormatID(d[FieldID])
}

// CreatedAt returns the createdAt timestamp string
func (d Document) CreatedAt() string {
	s, _ := d[FieldCreatedAt].(string)
	return s
}

// UpdatedAt returns the updatedAt timestamp string
func (d Document) UpdatedAt() string {
	s, _ := d[FieldUpdatedAt].(string)
	return s
}

// String returns the string value stored under key
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Clone returns a deep copy of nested maps and slices
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(d).(Document)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []Document:
		out := make([]Document, len(t))
		for i, val := range t {
			out[i] = val.Clone()
		}
		return out
	}
	return v
}

// FormatID renders a string or numeric identifier as a string
func FormatID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatTimestamp formats t in UTC with millisecond precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Ref is a relation that is either hydrated (Doc set) or a bare identifier
type Ref struct {
	ID  any
	Doc Document
}

// Hydrated reports whether the related document was populated
func (r Ref) Hydrated() bool {
	return r.Doc != nil
}

// MarshalJSON renders the nested document when hydrated, the bare id otherwise
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Doc != nil {
		return json.Marshal(r.Doc)
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts either a nested document or a bare id
func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return err
		}
		*r = Ref{ID: doc[FieldID], Doc: doc}
		return nil
	}
	var id any
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return err
	}
	*r = Ref{ID: id}
	return nil
}

var refType = reflect.TypeOf(Ref{})

func refHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != refType {
		return data, nil
	}
	switch v := data.(type) {
	case Ref:
		return v, nil
	case Document:
		return Ref{ID: v[FieldID], Doc: v}, nil
	case map[string]any:
		return Ref{ID: v[FieldID], Doc: Document(v)}, nil
	default:
		return Ref{ID: v}, nil
	}
}

// Decode converts a canonical document into a typed model using json tags
func Decode[T any](doc Document) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			refHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return out, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(doc)); err != nil {
		return out, fmt.Errorf("failed to decode document: %w", err)
	}
	return out, nil
}
