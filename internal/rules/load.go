// internal/rules/load.go
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/easyrules/internal/recordio"
	"github.com/solatis/easyrules/internal/types"
)

/*
 * Rule set files.
 *
 * A rule set is a YAML or JSON document:
 *
 *   name: risk-scoring
 *   match_mode: first
 *   keep_unmatched: false
 *   rules:
 *     - name: block-blacklisted
 *       priority: 1
 *       when: {field: blacklisted, op: eq, value: true}
 *       then:
 *         - {set: decision, value: BLOCKED}
 *
 * Unknown keys are rejected in both formats so that a misspelled operator
 * field fails loudly instead of silently matching everything.
 */

// Load reads and parses a rule set file. The format follows the extension.
func Load(path string) (*types.RuleSet, error) {
	format, err := recordio.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	set, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes a rule set from YAML or JSON. It only checks structure;
// Build and Compile validate the rules themselves.
func Parse(data []byte, format recordio.Format) (*types.RuleSet, error) {
	var set types.RuleSet
	switch format {
	case recordio.FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&set); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedRule, err)
		}
	case recordio.FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&set); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedRule, err)
		}
	default:
		return nil, fmt.Errorf("%w: rule sets are yaml or json, got %q", types.ErrUnsupportedFormat, format)
	}
	return &set, nil
}
