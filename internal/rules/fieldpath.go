// internal/rules/fieldpath.go
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/easyrules/internal/types"
)

/*
 * Field path parsing, resolution and copy-on-write update for records.
 *
 * Paths use dotted notation with bracketed indices: "user.name",
 * "items[0].price", "orders[*].items[*].sku", with an optional "$." prefix.
 * "*" as a key or "[*]" as an index is a wildcard.
 *
 * Key functions:
 *   - ParsePath: string -> []PathSegment
 *   - Resolve: Traverses a decoded record following a PathSegment chain
 *   - SetPath: Returns a new record with the value at path replaced
 *
 * Wildcard semantics: Resolve returns the first matching element (ANY
 * semantics). Object keys are visited in sorted order so that results are
 * deterministic. SetPath rejects wildcards.
 *
 * Copy-on-write: SetPath copies every map and slice on the way down to the
 * target and shares everything else with the input.
 */

// ResolveResult contains the resolved value and the actual path taken.
type ResolveResult struct {
	Value        any                 // resolved value (nil if not found)
	ResolvedPath []types.PathSegment // path with wildcards replaced by actual indices
	Found        bool                // true if path resolved to a value
}

// ParsePath parses a dotted field path.
func ParsePath(s string) ([]types.PathSegment, error) {
	p := strings.TrimSpace(s)
	p = strings.TrimPrefix(p, "$")
	p = strings.TrimPrefix(p, ".")
	if p == "" {
		return nil, fmt.Errorf("%w: %q is empty", types.ErrInvalidPath, s)
	}

	var segs []types.PathSegment
	for i, part := range strings.Split(p, ".") {
		key, brackets := part, ""
		if idx := strings.IndexByte(part, '['); idx >= 0 {
			key, brackets = part[:idx], part[idx:]
		}

		switch {
		case key == "*":
			segs = append(segs, types.PathSegment{Wildcard: true})
		case key != "":
			if strings.ContainsRune(key, ']') {
				return nil, fmt.Errorf("%w: %q has unbalanced ']'", types.ErrInvalidPath, s)
			}
			segs = append(segs, types.PathSegment{Key: key})
		case brackets == "" || i > 0:
			// Empty key is only legal for a leading index such as "[0].name".
			return nil, fmt.Errorf("%w: %q has an empty segment", types.ErrInvalidPath, s)
		}

		for brackets != "" {
			end := strings.IndexByte(brackets, ']')
			if brackets[0] != '[' || end < 0 {
				return nil, fmt.Errorf("%w: %q has malformed brackets", types.ErrInvalidPath, s)
			}
			inner := brackets[1:end]
			brackets = brackets[end+1:]
			if inner == "*" {
				segs = append(segs, types.PathSegment{Wildcard: true})
				continue
			}
			n, err := strconv.Atoi(inner)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %q has invalid index %q", types.ErrInvalidPath, s, inner)
			}
			segs = append(segs, types.PathSegment{Index: n, IsIndex: true})
		}
	}
	return segs, nil
}

// FormatPath renders segments back to dotted notation.
func FormatPath(path []types.PathSegment) string {
	var b strings.Builder
	for i, seg := range path {
		switch {
		case seg.IsIndex:
			fmt.Fprintf(&b, "[%d]", seg.Index)
		case seg.Wildcard:
			if i == 0 {
				b.WriteString("*")
			} else {
				b.WriteString("[*]")
			}
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Key)
		}
	}
	return b.String()
}

// validatePath enforces MaxPathDepth and MaxNestedWildcards.
func validatePath(path []types.PathSegment) error {
	if len(path) > types.MaxPathDepth {
		return types.ErrPathTooDeep
	}
	wildcardCount := 0
	for _, seg := range path {
		if seg.Wildcard {
			wildcardCount++
		}
	}
	if wildcardCount > types.MaxNestedWildcards {
		return types.ErrTooManyWildcards
	}
	return nil
}

func hasWildcard(path []types.PathSegment) bool {
	for _, seg := range path {
		if seg.Wildcard {
			return true
		}
	}
	return false
}

// Resolve traverses data following path segments.
// Returns ErrPathTooDeep if path exceeds MaxPathDepth.
// Returns ErrTooManyWildcards if path contains > MaxNestedWildcards wildcards.
// Returns ErrFieldNotFound if path does not exist in data.
func Resolve(path []types.PathSegment, data any) (ResolveResult, error) {
	if err := validatePath(path); err != nil {
		return ResolveResult{}, err
	}
	return resolveRecursive(path, data, nil)
}

// resolveRecursive traverses nested structures following path segments.
// Returns first match for wildcards (ANY semantics). Accumulates resolved path
// with actual indices/keys replacing wildcards.
func resolveRecursive(path []types.PathSegment, current any, resolvedSoFar []types.PathSegment) (ResolveResult, error) {
	if len(path) == 0 {
		return ResolveResult{
			Value:        current,
			ResolvedPath: resolvedSoFar,
			Found:        true,
		}, nil
	}

	seg := path[0]
	remaining := path[1:]

	switch v := current.(type) {
	case map[string]any:
		if seg.Wildcard {
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				resolved := appendSegment(resolvedSoFar, types.PathSegment{Key: key})
				result, err := resolveRecursive(remaining, v[key], resolved)
				if err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if seg.IsIndex {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		val, ok := v[seg.Key]
		if !ok {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, val, appendSegment(resolvedSoFar, seg))

	case []any:
		if seg.Wildcard {
			for i, elem := range v {
				resolved := appendSegment(resolvedSoFar, types.PathSegment{Index: i, IsIndex: true})
				result, err := resolveRecursive(remaining, elem, resolved)
				if err == nil && result.Found {
					return result, nil
				}
			}
			return ResolveResult{}, types.ErrFieldNotFound
		}
		if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(v) {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		return resolveRecursive(remaining, v[seg.Index], appendSegment(resolvedSoFar, seg))

	default:
		// nil or scalar with path remaining
		return ResolveResult{}, types.ErrFieldNotFound
	}
}

// appendSegment never shares the backing array between wildcard branches.
func appendSegment(path []types.PathSegment, seg types.PathSegment) []types.PathSegment {
	out := make([]types.PathSegment, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

// SetPath returns a copy of rec with the value at path replaced. Missing
// intermediate objects are created; indices must already exist. rec itself is
// never modified.
func SetPath(rec types.Record, path []types.PathSegment, value any) (types.Record, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", types.ErrInvalidPath)
	}
	if len(path) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}
	out, err := setRecursive(rec, path, value)
	if err != nil {
		return nil, err
	}
	return out.(types.Record), nil
}

func setRecursive(current any, path []types.PathSegment, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	seg := path[0]
	if seg.Wildcard {
		return nil, types.ErrWildcardInAction
	}

	if seg.IsIndex {
		arr, ok := current.([]any)
		if !ok || seg.Index < 0 || seg.Index >= len(arr) {
			return nil, fmt.Errorf("%w: index %d", types.ErrFieldNotFound, seg.Index)
		}
		child, err := setRecursive(arr[seg.Index], path[1:], value)
		if err != nil {
			return nil, err
		}
		cp := make([]any, len(arr))
		copy(cp, arr)
		cp[seg.Index] = child
		return cp, nil
	}

	var m map[string]any
	switch v := current.(type) {
	case map[string]any:
		m = v
	case nil:
	default:
		return nil, fmt.Errorf("%w: %q is not an object", types.ErrFieldNotFound, seg.Key)
	}
	child, err := setRecursive(m[seg.Key], path[1:], value)
	if err != nil {
		return nil, err
	}
	out := types.CloneRecord(m)
	out[seg.Key] = child
	return out, nil
}
