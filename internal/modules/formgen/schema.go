package formgen

import (
	"encoding/json"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// Structural shape of one candidate form and one candidate field as the model returns
// them. Only what coercion cannot repair is required.
const formSchemaJSON = `{
  "type": "object",
  "required": ["title", "fields"],
  "properties": {
    "title": {"type": "string"},
    "description": {"type": "string", "nullable": true},
    "theme": {"type": "string", "nullable": true},
    "language": {"type": "string", "nullable": true},
    "fields": {"type": "array", "items": {"type": "object"}}
  }
}`

const fieldSchemaJSON = `{
  "type": "object",
  "required": ["type", "label"],
  "properties": {
    "type": {"type": "string"},
    "label": {"type": "string"},
    "placeholder": {"type": "string", "nullable": true},
    "required": {"type": "boolean", "nullable": true},
    "options": {"type": "array", "nullable": true, "items": {"type": "string"}},
    "validation": {
      "type": "object",
      "nullable": true,
      "properties": {
        "min": {"type": "number", "nullable": true},
        "max": {"type": "number", "nullable": true},
        "step": {"type": "number", "nullable": true},
        "pattern": {"type": "string", "nullable": true}
      }
    }
  }
}`

var (
	schemaOnce  sync.Once
	formSchema  *openapi3.Schema
	fieldSchema *openapi3.Schema
)

func loadSchemas() {
	schemaOnce.Do(func() {
		formSchema = mustSchema(formSchemaJSON)
		fieldSchema = mustSchema(fieldSchemaJSON)
	})
}

func mustSchema(raw string) *openapi3.Schema {
	s := openapi3.NewSchema()
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		panic("formgen: invalid embedded schema: " + err.Error())
	}
	return s
}

// checkShape decodes raw generically and validates it against schema.
func checkShape(schema *openapi3.Schema, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.VisitJSON(v)
}
