package artifacts_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biokg/kgbench/internal/artifacts"
)

func TestWriteJSONRoundTrip(t *testing.T) {
	writer, err := artifacts.NewWriter(filepath.Join(t.TempDir(), "run-1"))
	require.NoError(t, err)

	type record struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	want := []record{{Question: "q?", Answer: "a"}}

	path, err := writer.WriteJSON("qa_pairs.json", want)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(writer.RunDir, "qa_pairs.json"), path)

	var got []record
	require.NoError(t, artifacts.ReadJSON(path, &got))
	assert.Equal(t, want, got)
}

func TestWriteJSONCreatesSubdirectories(t *testing.T) {
	writer, err := artifacts.NewWriter(t.TempDir())
	require.NoError(t, err)

	path, err := writer.WriteJSON("intermediates/qa_pairs_intermediate_50.json", map[string]int{"count": 50})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteText(t *testing.T) {
	writer, err := artifacts.NewWriter(t.TempDir())
	require.NoError(t, err)

	path, err := writer.WriteText("summary.txt", "kept 900 of 1000 items\n")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "kept 900 of 1000 items\n", string(data))
}

func TestReadJSONMissingFile(t *testing.T) {
	var out map[string]any
	err := artifacts.ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &out)
	assert.Error(t, err)
}
