package response

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	body, err := json.Marshal(OKWithData(map[string]any{"type": ""}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":0,"data":{"type":""}}`, string(body))

	body, err = json.Marshal(Error(8, "duplicate_activation", "license key is already activated"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":8,"kind":"duplicate_activation","msg":"license key is already activated"}`, string(body))
}

func TestValidationError(t *testing.T) {
	type request struct {
		LicenseKey   string `json:"license_key" validate:"required"`
		InstanceName string `json:"instance_name" validate:"required,max=5"`
	}

	err := validator.New().Struct(request{InstanceName: "too-long-name"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, CodeInvalidRequest, resp.Error)
	assert.Equal(t, KindInvalidRequest, resp.Kind)
	assert.Contains(t, resp.Msg, "field LicenseKey is a required field")
	assert.Contains(t, resp.Msg, "field InstanceName is too long")
}
