package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalUintDecoding(t *testing.T) {
	var req struct {
		CategoryID OptionalUint `json:"category_id"`
	}

	// Absent field: untouched
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.False(t, req.CategoryID.Set)

	// Explicit null: present but empty
	req.CategoryID = OptionalUint{}
	require.NoError(t, json.Unmarshal([]byte(`{"category_id": null}`), &req))
	assert.True(t, req.CategoryID.Set)
	assert.Nil(t, req.CategoryID.Value)

	// A value: present and populated
	req.CategoryID = OptionalUint{}
	require.NoError(t, json.Unmarshal([]byte(`{"category_id": 7}`), &req))
	assert.True(t, req.CategoryID.Set)
	require.NotNil(t, req.CategoryID.Value)
	assert.Equal(t, uint(7), *req.CategoryID.Value)
}
