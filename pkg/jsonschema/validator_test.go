package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const schemaStr = `{
  "type": "object",
  "properties": {
    "requests": {"type": "integer", "minimum": 0},
    "url": {"type": "string", "minLength": 1}
  },
  "required": ["url"],
  "additionalProperties": false
}`

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("bad.json", `{"type": 12}`)
	assert.Error(t, err)

	_, err = Compile("broken.json", `{not json`)
	assert.Error(t, err)
}

func TestSchema_ValidateYAMLDocument(t *testing.T) {
	schema, err := Compile("traffic.json", schemaStr)
	require.NoError(t, err)

	var doc interface{}
	require.NoError(t, yaml.Unmarshal([]byte("url: http://localhost:3001\nrequests: 10\n"), &doc))

	assert.Empty(t, schema.Validate(doc))
}

func TestSchema_ValidateReportsEveryViolation(t *testing.T) {
	schema, err := Compile("traffic.json", schemaStr)
	require.NoError(t, err)

	var doc interface{}
	require.NoError(t, yaml.Unmarshal([]byte("requests: -1\nextra: true\n"), &doc))

	errs := schema.Validate(doc)
	require.NotEmpty(t, errs)
	assert.GreaterOrEqual(t, len(errs), 3, errs.Error())
	assert.Contains(t, errs.Error(), "requests")
}

func TestValidateJSON(t *testing.T) {
	ok, errs := ValidateJSON(`{"url":"http://x"}`, schemaStr)
	assert.True(t, ok)
	assert.Empty(t, errs)

	ok, errs = ValidateJSON(`{"url":""}`, schemaStr)
	assert.False(t, ok)
	assert.NotEmpty(t, errs)

	ok, errs = ValidateJSON(`{oops`, schemaStr)
	assert.False(t, ok)
	assert.Contains(t, errs.Error(), "invalid JSON")
}
