package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Writer manages artifacts for a single pipeline run.
type Writer struct {
	RunDir string
}

// NewWriter creates the run directory.
func NewWriter(runDir string) (*Writer, error) {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{RunDir: runDir}, nil
}

// WriteJSON writes an object to a JSON file under the run directory.
// Subdirectories in name are created as needed.
func (w *Writer) WriteJSON(name string, value any) (string, error) {
	path := filepath.Join(w.RunDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteText writes a string to a file under the run directory.
func (w *Writer) WriteText(name string, data string) (string, error) {
	path := filepath.Join(w.RunDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadJSON decodes a JSON file into value.
func ReadJSON(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, value)
}
