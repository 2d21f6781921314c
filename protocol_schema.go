package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Inbound payloads are validated against JSON Schemas before they reach the
// hub, so malformed input is rejected at the edge with a reason string
// instead of surfacing as zero-valued commands.

const updateSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"const": "update"},
    "position": {
      "type": "object",
      "required": ["x", "y", "z"],
      "properties": {
        "x": {"type": "number"},
        "y": {"type": "number"},
        "z": {"type": "number"}
      },
      "additionalProperties": false
    },
    "rotationX": {"type": "number"},
    "rotationY": {"type": "number"},
    "radiationLevel": {"type": "number", "minimum": 0, "maximum": 100}
  },
  "additionalProperties": false
}`

const collectSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "objectId"],
  "properties": {
    "type": {"const": "collect"},
    "objectId": {"type": "integer", "minimum": 1}
  },
  "additionalProperties": false
}`

const chatSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "message"],
  "properties": {
    "type": {"const": "chat"},
    "message": {"type": "string", "minLength": 1}
  },
  "additionalProperties": false
}`

const heartbeatSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"const": "heartbeat"},
    "sentAt": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

var inboundSchemas = compileInboundSchemas()

func compileInboundSchemas() map[string]*jsonschema.Schema {
	sources := map[string]string{
		"update":    updateSchemaJSON,
		"collect":   collectSchemaJSON,
		"chat":      chatSchemaJSON,
		"heartbeat": heartbeatSchemaJSON,
	}

	compiled := make(map[string]*jsonschema.Schema, len(sources))
	for name, source := range sources {
		compiler := jsonschema.NewCompiler()
		url := fmt.Sprintf("inbound/%s.schema.json", name)
		if err := compiler.AddResource(url, strings.NewReader(source)); err != nil {
			panic(fmt.Sprintf("add schema %s: %v", name, err))
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("compile schema %s: %v", name, err))
		}
		compiled[name] = schema
	}
	return compiled
}

// validateInbound checks one raw client message against the schema for its
// declared type. Unknown types and schema violations both map to
// ErrInvalidMessage.
func validateInbound(msgType string, raw []byte) error {
	schema, ok := inboundSchemas[msgType]
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, msgType)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}
