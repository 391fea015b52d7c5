package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocument(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths["/auth/login"], "post")
	assert.Contains(t, doc.Paths["/invoices/{invoice_id}/register_payment"], "post")
	assert.Contains(t, doc.Paths["/portal/invoices"], "get")
	assert.Contains(t, doc.Paths["/bank_transfers/{bank_transfer_id}/reconcile"], "post")
	assert.Contains(t, doc.Paths["/staff_salaries"], "post")
}
