package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decisionSchema = MustCompile("decision", `{
	"type": "object",
	"required": ["applicationId", "approve"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"approve": {"type": "boolean"},
		"pin": {"type": "string", "pattern": "^[0-9]{6}$"}
	}
}`)

func TestValidateInput_Valid(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"applicationId": "APP-1",
		"approve":       true,
		"pin":           "123456",
	}, decisionSchema)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateInput_ReportsFields(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"approve": "yes",
		"pin":     "12",
	}, decisionSchema)

	require.False(t, result.Valid)
	assert.True(t, result.HasErrors("pin"))
	assert.True(t, result.HasErrors("approve"))
	assert.NotEmpty(t, result.GetErrorMessages())
}

func TestValidateJSON_Malformed(t *testing.T) {
	result := decisionSchema.ValidateJSON([]byte(`{"applicationId":`))

	require.False(t, result.Valid)
	assert.Equal(t, "MALFORMED_DOCUMENT", result.Errors[0].Code)
}

func TestCompile_BadSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ventas@empresa.co"))
	assert.False(t, ValidateEmail("ventas@"))
}
