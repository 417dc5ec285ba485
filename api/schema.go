package api

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var sendSchemaJSON []byte

// SendValidator checks the raw send-request body against the embedded JSON
// schema before any payload construction happens.
type SendValidator struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

func NewSendValidator() *SendValidator { return &SendValidator{} }

func (v *SendValidator) load() {
	v.schema, v.err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(sendSchemaJSON))
	if v.err != nil {
		v.err = fmt.Errorf("compile schema: %w", v.err)
	}
}

func (v *SendValidator) Validate(body []byte) error {
	v.once.Do(v.load)
	if v.err != nil {
		return v.err
	}
	res, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err
	}
	if !res.Valid() {
		return fmt.Errorf("request does not match schema: %v", res.Errors())
	}
	return nil
}
