package serializer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmartiSamia/deploykit/pkg/orchestrator"
)

func testOutcome() *orchestrator.Outcome {
	return &orchestrator.Outcome{
		Project:  "shop",
		Success:  true,
		Image:    "docker.io/acme/shop:7",
		Endpoint: "http://shop.deploy.local",
		Kind:     "node",
		Commit:   "abc1234",
		Branch:   "main",
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"json", "yaml", "table"} {
		f, err := ParseFormat(valid)
		require.NoError(t, err)
		assert.Equal(t, Format(valid), f)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)
	require.NoError(t, w.Write(testOutcome()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "shop", decoded["project"])
	assert.Equal(t, true, decoded["success"])
	assert.NotContains(t, decoded, "warning")
}

func TestWriter_YAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)
	require.NoError(t, w.Write(testOutcome()))

	assert.Contains(t, buf.String(), "project: shop")
	assert.Contains(t, buf.String(), "endpoint: http://shop.deploy.local")
}

func TestWriter_Table(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	require.NoError(t, w.Write(testOutcome()))

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "Project")
	assert.Contains(t, out, "shop")
	assert.Contains(t, out, "Endpoint")
}

func TestWriter_Raw(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)
	require.NoError(t, w.WriteRaw([]byte("apiVersion: v1\n")))
	assert.Equal(t, "apiVersion: v1\n", buf.String())
}
