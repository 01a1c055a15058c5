// Package report renders sweep results as a terminal grid or a JSON export.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/renameio"
	"github.com/l0p7/routesweep/internal/sweep"
)

// stdoutDestination names the results destination when no export path is set.
const stdoutDestination = "stdout"

// Metadata identifies where a run's inputs came from and where results went.
type Metadata struct {
	BaseURL     string `json:"base_url"`
	TargetsFile string `json:"targets_file"`
	ResultsFile string `json:"results_file"`
}

// Document is the exported form of a sweep.
type Document struct {
	Metadata  Metadata       `json:"metadata"`
	Responses []sweep.Result `json:"responses"`
}

// NewDocument wraps results with run metadata. An empty exportFile is recorded
// as "stdout".
func NewDocument(baseURL, targetsFile, exportFile string, results []sweep.Result) Document {
	destination := exportFile
	if strings.TrimSpace(destination) == "" {
		destination = stdoutDestination
	}
	if results == nil {
		results = []sweep.Result{}
	}
	return Document{
		Metadata: Metadata{
			BaseURL:     baseURL,
			TargetsFile: targetsFile,
			ResultsFile: destination,
		},
		Responses: results,
	}
}

// Encode serializes doc as JSON with four-space indentation.
func Encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("report: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteExport atomically replaces path with the encoded document.
func WriteExport(path string, doc Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// Render emits doc in exactly one mode: a JSON export when exportPath is set,
// otherwise a table on stdout.
func Render(stdout io.Writer, doc Document, exportPath string) error {
	if strings.TrimSpace(exportPath) == "" {
		return WriteTable(stdout, doc.Responses)
	}
	if err := WriteExport(exportPath, doc); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(stdout, "Results exported to %s\n", exportPath); err != nil {
		return fmt.Errorf("report: write confirmation: %w", err)
	}
	return nil
}
