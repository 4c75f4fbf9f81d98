package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchemas holds one compiled validator per *Schema. Keying by
// pointer keeps two schemas that share a name from colliding.
var compiledSchemas sync.Map // map[*Schema]*compiledSchema

type compiledSchema struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// validate checks a provider reply against s. A nil schema accepts
// anything. Failures come back as *ErrInvalidResponse carrying raw so the
// caller can still show or repair the reply.
func (s *Schema) validate(raw json.RawMessage) error {
	if s == nil {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("reply is not JSON: %w", err)}
	}

	v, err := s.compiled()
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := v.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("reply does not match schema %q: %w", s.Name, err)}
	}
	return nil
}

func (s *Schema) compiled() (*jsonschema.Schema, error) {
	entry, _ := compiledSchemas.LoadOrStore(s, &compiledSchema{})
	c := entry.(*compiledSchema)
	c.once.Do(func() { c.schema, c.err = s.compile() })
	return c.schema, c.err
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	// The compiler wants json.Number leaves, so the definition takes a
	// JSON round trip.
	def, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}

	url := "mem://quizzly/" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", s.Name, err)
	}
	return compiled, nil
}
