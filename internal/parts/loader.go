// Package parts loads part request lists from CSV and YAML files.
package parts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/partscout/partscout/internal/domain"
)

var ErrUnsupportedFormat = errors.New("unsupported parts file format")

// fileDoc is the YAML document shape. Fields are decoded through
// mapstructure so keys stay case-insensitive.
type fileDoc struct {
	Parts []partEntry `mapstructure:"parts"`
}

type partEntry struct {
	Name     string `mapstructure:"name"`
	Code     string `mapstructure:"code"`
	Keywords string `mapstructure:"keywords"`
}

// LoadFile reads part requests from path, dispatching on extension.
// Every loaded part is normalized; a part without a name fails the load.
func LoadFile(path string) ([]domain.PartRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parts file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f)
	case ".yml", ".yaml":
		return LoadYAML(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadCSV reads parts from CSV with a name,code,keywords header. Column
// order follows the header; missing optional columns are tolerated.
func LoadCSV(r io.Reader) ([]domain.PartRequest, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, errors.New("csv header missing name column")
	}

	var parts []domain.PartRequest
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		part, err := domain.PartRequest{
			Name:     field(record, cols, "name"),
			Code:     field(record, cols, "code"),
			Keywords: field(record, cols, "keywords"),
		}.Normalize()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(parts)+2, err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// LoadYAML reads parts from a YAML document with a top-level parts list.
func LoadYAML(r io.Reader) ([]domain.PartRequest, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode parts yaml: %w", err)
	}

	var doc fileDoc
	if err := mapstructure.Decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("map parts yaml: %w", err)
	}

	parts := make([]domain.PartRequest, 0, len(doc.Parts))
	for i, entry := range doc.Parts {
		part, err := domain.PartRequest{
			Name:     entry.Name,
			Code:     entry.Code,
			Keywords: entry.Keywords,
		}.Normalize()
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i+1, err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
