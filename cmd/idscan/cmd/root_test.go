package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := GetRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeJSONFile(t *testing.T, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRootShowsHelp(t *testing.T) {
	out, err := executeCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "idscan")
	assert.Contains(t, out, "extract")
}

func TestVersionFlag(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "idscan version")
}

func TestSubcommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range GetRootCommand().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"extract", "verify", "quality", "serve", "config"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVerifyCommand(t *testing.T) {
	extracted := writeJSONFile(t, "extracted.json", map[string]string{
		"fullName":    "JOHN SMITH",
		"dateOfBirth": "1990-01-01",
	})
	reference := writeJSONFile(t, "reference.json", map[string]string{
		"fullName":    "John Smith",
		"dateOfBirth": "01/01/1990",
	})

	out, err := executeCommand(t, "verify", "--extracted", extracted, "--reference", reference)
	require.NoError(t, err)
	assert.Contains(t, out, "Overall: PASS")
	assert.Contains(t, out, "fullName")
}

func TestVerifyCommandMissingFile(t *testing.T) {
	reference := writeJSONFile(t, "reference.json", map[string]string{"fullName": "X"})
	_, err := executeCommand(t, "verify",
		"--extracted", filepath.Join(t.TempDir(), "missing.json"),
		"--reference", reference)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading extracted fields")
}

func TestQualityCommand(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 120, 80))
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	out, err := executeCommand(t, "quality", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Overall score:")
	assert.Contains(t, out, "Decision:")
}

func TestExtractRejectsInvalidFormat(t *testing.T) {
	_, err := executeCommand(t, "extract", "whatever.png", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExtractRejectsUnknownEngine(t *testing.T) {
	_, err := executeCommand(t, "extract", "whatever.png", "--format", "text", "--engines", "easyocr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")
}

func TestExtractMissingInput(t *testing.T) {
	_, err := executeCommand(t, "extract", filepath.Join(t.TempDir(), "missing.png"), "--format", "text")
	require.Error(t, err)
}
