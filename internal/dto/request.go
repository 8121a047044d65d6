package dto

import "github.com/splitleasesharath/splitlease-sub017/internal/entity"

// BuildRequest asks for the HTTP request a delivery would produce, without
// executing it.
type BuildRequest struct {
	Operation     entity.Operation  `json:"operation"`
	TableName     string            `json:"table_name"`
	DestinationID string            `json:"destination_id,omitempty"`
	Data          map[string]any    `json:"data,omitempty"`
	FieldMapping  map[string]string `json:"field_mapping,omitempty"`
}

// BuiltRequest is the inspectable request plus a human-readable preview and
// an equivalent curl reproduction. Credential material is redacted in both.
type BuiltRequest struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers"`
	Body    map[string]any    `json:"body,omitempty"`
	Preview string            `json:"preview"`
	Curl    string            `json:"curl"`
}
