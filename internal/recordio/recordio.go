// Package recordio reads and writes batches of map records.
//
// Supported formats are a JSON array, JSON Lines (one object per line) and a
// YAML sequence of mappings. Output is deterministic: encoding/json sorts
// object keys and yaml.v3 does the same for maps. JSON numbers decode to
// json.Number, so integers wider than float64 pass through unchanged.
package recordio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solatis/easyrules/internal/types"
)

// Format names a record encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts the canonical names plus "ndjson" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", types.ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Read decodes every record from r. Each element must be an object.
func Read(r io.Reader, format Format) ([]types.Record, error) {
	switch format {
	case FormatJSON:
		return readJSON(r)
	case FormatJSONL:
		return readJSONL(r)
	case FormatYAML:
		return readYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
	}
}

// Write encodes records to w. A nil slice is written as an empty batch.
func Write(w io.Writer, format Format, records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for i, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
	}
}

func readJSON(r io.Reader) ([]types.Record, error) {
	var raw []any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return []types.Record{}, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return toRecords(raw)
}

func readJSONL(r io.Reader) ([]types.Record, error) {
	out := []types.Record{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec types.Record
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("line %d: unexpected data after record", line)
		}
		if rec == nil {
			return nil, fmt.Errorf("line %d: %w: null is not an object", line, types.ErrTypeMismatch)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func readYAML(r io.Reader) ([]types.Record, error) {
	var raw []any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return []types.Record{}, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return toRecords(raw)
}

func toRecords(raw []any) ([]types.Record, error) {
	out := make([]types.Record, len(raw))
	for i, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d: %w: %T is not an object", i, types.ErrTypeMismatch, v)
		}
		out[i] = m
	}
	return out, nil
}
