package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type roomPayload struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		initial     roomPayload
		expected    roomPayload
		expectError bool
	}{
		{
			name:     "nested",
			key:      "room",
			body:     `{"room": {"name": "R-101", "capacity": 2}}`,
			expected: roomPayload{Name: "R-101", Capacity: 2},
		},
		{
			name:     "flat",
			key:      "room",
			body:     `{"name": "R-102", "capacity": 1}`,
			expected: roomPayload{Name: "R-102", Capacity: 1},
		},
		{
			name:     "flat with unrelated keys",
			key:      "room",
			body:     `{"other": "value", "name": "R-103", "capacity": 3}`,
			expected: roomPayload{Name: "R-103", Capacity: 3},
		},
		{
			name:     "missing fields keep current values",
			key:      "room",
			body:     `{"room": {"capacity": 4}}`,
			initial:  roomPayload{Name: "R-104", Capacity: 1},
			expected: roomPayload{Name: "R-104", Capacity: 4},
		},
		{
			name:     "empty body keeps current values",
			key:      "room",
			body:     ``,
			initial:  roomPayload{Name: "R-105", Capacity: 2},
			expected: roomPayload{Name: "R-105", Capacity: 2},
		},
		{
			name:        "wrong type",
			key:         "room",
			body:        `{"name": "R-106", "capacity": "two"}`,
			expectError: true,
		},
		{
			name:        "nested key holds a string",
			key:         "room",
			body:        `{"room": "R-107"}`,
			expectError: true,
		},
		{
			name:        "binding tags are checked",
			key:         "room",
			body:        `{"room": {"capacity": 2}}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			result := tt.initial
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
