package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// InputsFile is the name SaveInputs writes to.
const InputsFile = "processed_data.json"

// SearchHit is one crawled page or search-engine result.
type SearchHit struct {
	Link    string `json:"link"`
	Data    string `json:"data"`
	Snippet string `json:"google_snipping"`
}

// Input is the text handed to the summarizer for one hit.
type Input struct {
	Link string `json:"link"`
	Data string `json:"data"`
}

// PrepareInputs keeps each hit's link and body. A hit whose body is blank
// falls back to its search snippet.
func PrepareInputs(hits []SearchHit) []Input {
	out := make([]Input, len(hits))
	for i, h := range hits {
		data := h.Data
		if strings.TrimSpace(data) == "" {
			data = h.Snippet
		}
		out[i] = Input{Link: h.Link, Data: data}
	}
	return out
}

// SaveInputs writes inputs to dir/processed_data.json and returns the path.
func SaveInputs(dir string, inputs []Input) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(inputs); err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}
	path := filepath.Join(dir, InputsFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write inputs: %w", err)
	}
	return path, nil
}

// SummarizeHits summarizes search hits under "## <link>" headings. The
// prepared inputs are also saved next to the reports; a failed save is logged.
func (s *SummaryService) SummarizeHits(ctx context.Context, hits []SearchHit) (*Report, error) {
	if len(hits) == 0 {
		return nil, ErrNoFiles
	}
	inputs := PrepareInputs(hits)
	if path, err := SaveInputs(s.summaryDir, inputs); err != nil {
		s.logger.Error("failed to save prepared inputs", zap.Error(err))
	} else {
		s.logger.Debug("prepared inputs saved", zap.String("path", path))
	}

	names := make([]string, len(inputs))
	items := make([]item, len(inputs))
	for i, in := range inputs {
		names[i] = in.Link
		items[i] = item{name: in.Link, content: in.Data}
	}
	return s.summarizeItems(ctx, names, items, nil)
}
