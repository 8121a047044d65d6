// Package bubble implements the two delivery strategies against the
// destination platform: workflow invocation (one generic endpoint per table)
// and the direct object API (CRUD verbs against the platform's data store).
package bubble

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

const (
	workflowBasePath = "/api/1.1/wf"
	objectBasePath   = "/api/1.1/obj"

	idempotencyHeader = "Idempotency-Key"
)

// readOnlyFields are assigned by the destination and rejected on writes.
// Builders strip them regardless of configuration, as a final safety net on
// top of the transformer and mapper.
var readOnlyFields = map[string]struct{}{
	"_id":           {},
	"Created Date":  {},
	"Modified Date": {},
	"Created By":    {},
}

// Request is the wire shape both delivery strategies share. Building one is
// a pure function of config and data so requests can be previewed without
// side effects.
type Request struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers"`
	Body    map[string]any    `json:"body,omitempty"`
}

// BuildWorkflowRequest builds the single POST a workflow invocation makes.
func BuildWorkflowRequest(apiKey, workflow, recordID string, op entity.Operation, data map[string]any, idempotencyKey string) Request {
	req := Request{
		Method:  http.MethodPost,
		Path:    workflowBasePath + "/" + workflow,
		Headers: baseHeaders(apiKey, idempotencyKey),
		Body: map[string]any{
			"recordId":  recordID,
			"operation": string(op),
			"data":      data,
		},
	}

	return req
}

// BuildDataRequest builds the operation-specific call of the direct object
// API. Update and delete address an existing destination object and require
// its id.
func BuildDataRequest(apiKey, objectType, destinationID string, op entity.Operation, data map[string]any, idempotencyKey string) (Request, error) {
	itemPath := objectBasePath + "/" + objectType
	if destinationID != "" {
		itemPath += "/" + destinationID
	}

	req := Request{
		Headers: baseHeaders(apiKey, idempotencyKey),
	}

	switch op {
	case entity.OpInsert:
		req.Method = http.MethodPost
		req.Path = objectBasePath + "/" + objectType
		req.Body = stripReadOnly(data)
	case entity.OpUpdate:
		if destinationID == "" {
			return Request{}, fmt.Errorf("bubble - BuildDataRequest: update requires a destination id: %w", errs.ErrRecordNotFound)
		}
		req.Method = http.MethodPatch
		req.Path = itemPath
		req.Body = stripReadOnly(data)
	case entity.OpDelete:
		if destinationID == "" {
			return Request{}, fmt.Errorf("bubble - BuildDataRequest: delete requires a destination id: %w", errs.ErrRecordNotFound)
		}
		req.Method = http.MethodDelete
		req.Path = itemPath
	default:
		return Request{}, fmt.Errorf("bubble - BuildDataRequest: %q: %w", op, errs.ErrUnknownOperation)
	}

	return req, nil
}

// BuildGetRequest builds a read of one destination object.
func BuildGetRequest(apiKey, objectType, destinationID string) Request {
	return Request{
		Method:  http.MethodGet,
		Path:    objectBasePath + "/" + objectType + "/" + destinationID,
		Headers: baseHeaders(apiKey, ""),
	}
}

// Preview renders the request for operators with the credential redacted.
func (r Request) Preview() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", r.Method, r.Path)

	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, redactHeader(k, r.Headers[k]))
	}

	if r.Body != nil {
		body, err := json.MarshalIndent(r.Body, "", "  ")
		if err == nil {
			b.WriteString("\n")
			b.Write(body)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Curl renders an equivalent command-line reproduction, credential redacted.
func (r Request) Curl(baseURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "curl -X %s '%s%s'", r.Method, baseURL, r.Path)

	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, " \\\n  -H '%s: %s'", k, redactHeader(k, r.Headers[k]))
	}

	if r.Body != nil {
		body, err := json.Marshal(r.Body)
		if err == nil {
			fmt.Fprintf(&b, " \\\n  -d '%s'", string(body))
		}
	}

	return b.String()
}

func baseHeaders(apiKey, idempotencyKey string) map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + apiKey,
		"Content-Type":  "application/json",
	}
	if idempotencyKey != "" {
		headers[idempotencyHeader] = idempotencyKey
	}

	return headers
}

func stripReadOnly(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, readOnly := readOnlyFields[k]; readOnly {
			continue
		}
		out[k] = v
	}

	return out
}

func redactHeader(key, value string) string {
	if !strings.EqualFold(key, "Authorization") {
		return value
	}

	return "Bearer [REDACTED]"
}
