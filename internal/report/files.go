package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFiles writes the JSON document and Markdown briefing into dir,
// named by target date. Returns the paths written.
func WriteFiles(dir string, doc Document) (jsonPath, mdPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	stem := "triage_" + doc.TargetDate
	jsonPath = filepath.Join(dir, stem+".json")
	mdPath = filepath.Join(dir, stem+".md")

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write json report: %w", err)
	}
	if err := os.WriteFile(mdPath, []byte(Markdown(doc)), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown report: %w", err)
	}
	return jsonPath, mdPath, nil
}
