package handlers

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// BindNestedOrFlat decodes the body into obj, accepting both {"key": {...}} and
// the flat {...} form, then runs the struct's binding tags.
// Fields absent from the body keep the values obj already holds, and an empty
// body leaves obj untouched.
func BindNestedOrFlat(c *gin.Context, key string, obj any) error {
	var body []byte
	if c.Request.Body != nil {
		var err error
		if body, err = io.ReadAll(c.Request.Body); err != nil {
			return err
		}
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	if len(bytes.TrimSpace(body)) > 0 {
		payload := json.RawMessage(body)
		var envelope map[string]json.RawMessage
		if json.Unmarshal(body, &envelope) == nil {
			if nested, ok := envelope[key]; ok {
				payload = nested
			}
		}
		if err := json.Unmarshal(payload, obj); err != nil {
			return err
		}
	}
	if binding.Validator == nil {
		return nil
	}
	return binding.Validator.ValidateStruct(obj)
}
