package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// CompileSchema returns the compiled form of schema, compiling and caching
// it on first use. Schemas are cached by name, so a name must always refer
// to the same definition.
func CompileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if schema == nil {
		return nil, fmt.Errorf("compile schema: nil schema")
	}
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The jsonschema library expects a parsed JSON value (any), not Go maps
	// holding ints and typed slices.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	actual, _ := schemaCache.LoadOrStore(schema.Name, compiled)
	return actual.(*jsonschema.Schema), nil
}

// checkTruncation turns a response cut off at the token limit into
// ErrMaxTokensExceeded when the cut left it unparseable. A truncated reply
// that still parses is passed through and judged by the caller.
func checkTruncation(content json.RawMessage, stopReason string) error {
	if stopReason == "max_tokens" && !json.Valid(content) {
		return &ErrMaxTokensExceeded{Content: content}
	}
	return nil
}
