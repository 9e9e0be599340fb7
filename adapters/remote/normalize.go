package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
)

const collectionEnvelopeSchema = `{
	"type": "object",
	"required": ["data", "meta"],
	"properties": {
		"data": {"type": "array", "items": {"type": "object"}},
		"meta": {
			"type": "object",
			"required": ["pagination"],
			"properties": {
				"pagination": {
					"type": "object",
					"required": ["page", "pageSize", "pageCount", "total"],
					"properties": {
						"page": {"type": "integer"},
						"pageSize": {"type": "integer"},
						"pageCount": {"type": "integer"},
						"total": {"type": "integer"}
					}
				}
			}
		}
	}
}`

// The upload plugin lists files as a bare array
const bareListSchema = `{"type": "array", "items": {"type": "object"}}`

const singleEnvelopeSchema = `{
	"type": "object",
	"anyOf": [
		{
			"required": ["data"],
			"properties": {"data": {"type": ["object", "null"]}}
		},
		{"required": ["id"]}
	]
}`

// Normalizer converts REST envelopes into canonical documents and pages
type Normalizer struct {
	now        func() time.Time
	log        *logger.Logger
	collection *gojsonschema.Schema
	bareList   *gojsonschema.Schema
	single     *gojsonschema.Schema
}

// NewNormalizer creates a normalizer. now supplies defaults for missing timestamps.
func NewNormalizer(log *logger.Logger, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{
		now:        now,
		log:        logger.OrNop(log),
		collection: mustSchema(collectionEnvelopeSchema),
		bareList:   mustSchema(bareListSchema),
		single:     mustSchema(singleEnvelopeSchema),
	}
}

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid envelope schema: %v", err))
	}
	return schema
}

// Collection parses a collection response into a canonical page
func (n *Normalizer) Collection(body []byte) (*core.PaginatedResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := validate(n.bareList, trimmed); err != nil {
			return nil, err
		}
		var items []any
		if err := decodeJSON(trimmed, &items); err != nil {
			return nil, err
		}
		docs := n.documents(items)
		return core.NewPaginatedResult(docs, len(docs), len(docs), 1, 1), nil
	}

	if err := validate(n.collection, trimmed); err != nil {
		return nil, err
	}
	var envelope struct {
		Data []any `json:"data"`
		Meta struct {
			Pagination struct {
				Page      json.Number `json:"page"`
				PageSize  json.Number `json:"pageSize"`
				PageCount json.Number `json:"pageCount"`
				Total     json.Number `json:"total"`
			} `json:"pagination"`
		} `json:"meta"`
	}
	if err := decodeJSON(trimmed, &envelope); err != nil {
		return nil, err
	}

	p := envelope.Meta.Pagination
	return core.NewPaginatedResult(
		n.documents(envelope.Data),
		toInt(p.Total),
		toInt(p.PageSize),
		toInt(p.Page),
		toInt(p.PageCount),
	), nil
}

// Total parses a collection response and returns meta.pagination.total
func (n *Normalizer) Total(body []byte) (int, error) {
	result, err := n.Collection(body)
	if err != nil {
		return 0, err
	}
	return result.TotalDocs, nil
}

// Single parses a single-document response. A null data member yields a
// NotFoundError for collection/id.
func (n *Normalizer) Single(body []byte, collection string, id any) (core.Document, error) {
	trimmed := bytes.TrimSpace(body)
	if err := validate(n.single, trimmed); err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := decodeJSON(trimmed, &raw); err != nil {
		return nil, err
	}

	data, enveloped := raw["data"]
	if !enveloped {
		return n.Document(raw), nil
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, &core.NotFoundError{Collection: collection, ID: id}
	}
	return n.Document(obj), nil
}

// Document flattens one native document into canonical shape
func (n *Normalizer) Document(raw map[string]any) core.Document {
	doc := make(core.Document, len(raw))
	for k, v := range raw {
		if k == "attributes" {
			continue
		}
		doc[k] = n.value(v)
	}
	if attrs, ok := raw["attributes"].(map[string]any); ok {
		for k, v := range attrs {
			doc[k] = n.value(v)
		}
	}
	if id, ok := raw[core.FieldID]; ok {
		doc[core.FieldID] = n.value(id)
	}

	for _, key := range []string{core.FieldCreatedAt, core.FieldUpdatedAt} {
		if s, ok := doc[key].(string); ok && s != "" {
			continue
		}
		doc[key] = core.FormatTimestamp(n.now())
		n.log.Debug("defaulted missing timestamp").
			Str("field", key).
			Str("id", doc.IDString()).
			Send()
	}
	return doc
}

func (n *Normalizer) documents(items []any) []core.Document {
	docs := make([]core.Document, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			docs = append(docs, n.Document(m))
		}
	}
	return docs
}

// value unwraps relation envelopes and converts numbers
func (n *Normalizer) value(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = n.value(item)
		}
		return out
	case map[string]any:
		if isRelationEnvelope(t) {
			return n.relation(t["data"])
		}
		if _, hasAttrs := t["attributes"].(map[string]any); hasAttrs {
			if _, hasID := t[core.FieldID]; hasID {
				return n.Document(t)
			}
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = n.value(val)
		}
		return out
	}
	return v
}

func (n *Normalizer) relation(data any) any {
	switch t := data.(type) {
	case nil:
		return nil
	case map[string]any:
		return n.Document(t)
	case []any:
		docs := make([]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				docs = append(docs, n.Document(m))
			} else {
				docs = append(docs, n.value(item))
			}
		}
		return docs
	}
	return n.value(data)
}

// isRelationEnvelope matches {data: ...} with an optional meta member
func isRelationEnvelope(m map[string]any) bool {
	if _, ok := m["data"]; !ok {
		return false
	}
	for k := range m {
		if k != "data" && k != "meta" {
			return false
		}
	}
	return true
}

func validate(schema *gojsonschema.Schema, body []byte) error {
	if len(body) == 0 {
		return malformed("empty response body", nil)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return malformed("response is not valid JSON", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return malformed("unexpected response shape: "+strings.Join(msgs, "; "), nil)
	}
	return nil
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return malformed("failed to decode response", err)
	}
	return nil
}

func malformed(msg string, err error) error {
	return &core.BackendError{
		Provider: core.ProviderRemote,
		Op:       "decode",
		Message:  msg,
		Err:      err,
	}
}

func toInt(n json.Number) int {
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	f, _ := n.Float64()
	return int(f)
}
