package rules

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/easyrules/internal/types"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", s, err)
	}
	return v
}

func mustPath(t *testing.T, s string) []types.PathSegment {
	t.Helper()
	p, err := ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q) error = %v, want nil", s, err)
	}
	return p
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want []types.PathSegment
	}{
		{"user.name", []types.PathSegment{{Key: "user"}, {Key: "name"}}},
		{"$.items[0].price", []types.PathSegment{{Key: "items"}, {Index: 0, IsIndex: true}, {Key: "price"}}},
		{"items[*].price", []types.PathSegment{{Key: "items"}, {Wildcard: true}, {Key: "price"}}},
		{"*.value", []types.PathSegment{{Wildcard: true}, {Key: "value"}}},
		{"[0].name", []types.PathSegment{{Index: 0, IsIndex: true}, {Key: "name"}}},
		{"grid[1][2]", []types.PathSegment{{Key: "grid"}, {Index: 1, IsIndex: true}, {Index: 2, IsIndex: true}}},
		{"  a  ", []types.PathSegment{{Key: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if err != nil {
				t.Fatalf("ParsePath() error = %v, want nil", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePath() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParsePath_Errors(t *testing.T) {
	for _, in := range []string{"", "$", ".", "a..b", "a.", "a[", "a[x]", "a[-1]", "a]b", "a.[0]", "a[0]b"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePath(in)
			if !errors.Is(err, types.ErrInvalidPath) {
				t.Errorf("ParsePath(%q) error = %v, want ErrInvalidPath", in, err)
			}
		})
	}
}

func TestFormatPath(t *testing.T) {
	for _, in := range []string{"user.name", "items[0].price", "items[*].price", "*.value", "[0].name", "grid[1][2]"} {
		if got := FormatPath(mustPath(t, in)); got != in {
			t.Errorf("FormatPath(ParsePath(%q)) = %q", in, got)
		}
	}
}

func TestResolve_Normal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		data     string
		expected any
	}{
		{"nested object traversal", "user.name", `{"user": {"name": "Alice"}}`, "Alice"},
		{"array index access", "users[0].name", `{"users": [{"name": "Bob"}]}`, "Bob"},
		{"single wildcard first match", "items[*].price", `{"items": [{"price": 10}, {"price": 20}]}`, float64(10)},
		{"wildcard on object sorted keys", "*.value", `{"z": {"value": 1}, "a": {"value": 2}, "m": {"value": 3}}`, float64(2)},
		{"deep nesting", "a.b.c.d", `{"a": {"b": {"c": {"d": "deep"}}}}`, "deep"},
		{"nested wildcards", "orders[*].items[*].price", `{"orders": [{"items": [{"price": 100}, {"price": 200}]}, {"items": [{"price": 300}]}]}`, float64(100)},
		{"wildcard skips elements without the key", "items[*].sku", `{"items": [{"price": 1}, {"sku": "B-2"}]}`, "B-2"},
		{"explicit null is found", "a", `{"a": null}`, nil},
		{"root index", "[1]", `[10, 20]`, float64(20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Resolve(mustPath(t, tt.path), decode(t, tt.data))
			if err != nil {
				t.Fatalf("Resolve() error = %v, want nil", err)
			}
			if !result.Found {
				t.Fatalf("Resolve() Found = false, want true")
			}
			if !reflect.DeepEqual(result.Value, tt.expected) {
				t.Errorf("Resolve() Value = %v, want %v", result.Value, tt.expected)
			}
		})
	}
}

func TestResolve_ResolvedPath(t *testing.T) {
	result, err := Resolve(mustPath(t, "items[*].sku"), decode(t, `{"items": [{"price": 1}, {"sku": "B-2"}]}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if got := FormatPath(result.ResolvedPath); got != "items[1].sku" {
		t.Errorf("ResolvedPath = %q, want %q", got, "items[1].sku")
	}

	result, err = Resolve(mustPath(t, "*.value"), decode(t, `{"z": {"value": 1}, "a": {"value": 2}}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if got := FormatPath(result.ResolvedPath); got != "a.value" {
		t.Errorf("ResolvedPath = %q, want %q", got, "a.value")
	}
}

func TestResolve_NotFound(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
	}{
		{"missing key", "user.email", `{"user": {"name": "Alice"}}`},
		{"index out of bounds", "items[5]", `{"items": [1, 2]}`},
		{"index on object", "user[0]", `{"user": {"name": "Alice"}}`},
		{"key on array", "items.price", `{"items": [{"price": 1}]}`},
		{"through scalar", "a.b", `{"a": 5}`},
		{"through null", "a.b", `{"a": null}`},
		{"wildcard on empty array", "items[*].price", `{"items": []}`},
		{"wildcard without match", "items[*].sku", `{"items": [{"price": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(mustPath(t, tt.path), decode(t, tt.data))
			if !errors.Is(err, types.ErrFieldNotFound) {
				t.Errorf("Resolve() error = %v, want ErrFieldNotFound", err)
			}
		})
	}
}

func TestResolve_Limits(t *testing.T) {
	deep := make([]types.PathSegment, types.MaxPathDepth+1)
	for i := range deep {
		deep[i] = types.PathSegment{Key: "a"}
	}
	if _, err := Resolve(deep, map[string]any{}); err != types.ErrPathTooDeep {
		t.Errorf("Resolve() error = %v, want ErrPathTooDeep", err)
	}

	wild := mustPath(t, "a[*].b[*].c[*]")
	if _, err := Resolve(wild, map[string]any{}); err != types.ErrTooManyWildcards {
		t.Errorf("Resolve() error = %v, want ErrTooManyWildcards", err)
	}
}

func TestSetPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		in   string
		want string
	}{
		{"replace top-level", "status", `{"status": "new", "id": 1}`, `{"status": "X", "id": 1}`},
		{"add top-level", "status", `{"id": 1}`, `{"status": "X", "id": 1}`},
		{"nested existing", "user.tier", `{"user": {"tier": "basic", "name": "A"}}`, `{"user": {"tier": "X", "name": "A"}}`},
		{"creates intermediates", "meta.flags.risk", `{}`, `{"meta": {"flags": {"risk": "X"}}}`},
		{"array element", "items[1].tag", `{"items": [{"tag": "a"}, {"tag": "b"}]}`, `{"items": [{"tag": "a"}, {"tag": "X"}]}`},
		{"replace null", "a.b", `{"a": null}`, `{"a": {"b": "X"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := decode(t, tt.in).(map[string]any)
			before := decode(t, tt.in)

			got, err := SetPath(in, mustPath(t, tt.path), "X")
			if err != nil {
				t.Fatalf("SetPath() error = %v, want nil", err)
			}
			if want := decode(t, tt.want); !reflect.DeepEqual(map[string]any(got), want) {
				t.Errorf("SetPath() = %v, want %v", got, want)
			}
			if !reflect.DeepEqual(any(in), before) {
				t.Errorf("SetPath() modified its input: %v", in)
			}
		})
	}
}

func TestSetPath_Errors(t *testing.T) {
	rec := decode(t, `{"items": [1], "n": 5}`).(map[string]any)

	tests := []struct {
		name    string
		path    []types.PathSegment
		wantErr error
	}{
		{"empty path", nil, types.ErrInvalidPath},
		{"wildcard", mustPath(t, "items[*]"), types.ErrWildcardInAction},
		{"index out of range", mustPath(t, "items[3]"), types.ErrFieldNotFound},
		{"index on missing list", mustPath(t, "other[0]"), types.ErrFieldNotFound},
		{"key under scalar", mustPath(t, "n.x"), types.ErrFieldNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SetPath(rec, tt.path, 1); !errors.Is(err, tt.wantErr) {
				t.Errorf("SetPath() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// buildPath alternates keys and indices so generated paths exercise both.
func buildPath(keys []string, index int, wildcard bool) []types.PathSegment {
	var path []types.PathSegment
	for i, k := range keys {
		path = append(path, types.PathSegment{Key: k})
		if i%2 == 1 {
			path = append(path, types.PathSegment{Index: index, IsIndex: true})
		}
	}
	if wildcard && len(path) > 0 {
		path = append(path, types.PathSegment{Wildcard: true})
	}
	return path
}

func nonEmpty(keys []string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func TestPath_PropertyRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ParsePath inverts FormatPath", prop.ForAll(
		func(keys []string, index int, wildcard bool) bool {
			path := buildPath(nonEmpty(keys), index, wildcard)
			if len(path) == 0 {
				return true
			}
			parsed, err := ParsePath(FormatPath(path))
			return err == nil && reflect.DeepEqual(parsed, path)
		},
		gen.SliceOfN(6, gen.Identifier()),
		gen.IntRange(0, 50),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestResolve_PropertyNeverCrashes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	data := decode(t, `{"key": [{"key": "value"}, {"key": null}], "other": {"key": 1}}`)

	properties.Property("resolution never crashes regardless of path", prop.ForAll(
		func(depth int, wildcards int, useArray bool) bool {
			path := make([]types.PathSegment, depth)
			wildcardCount := 0
			for i := 0; i < depth; i++ {
				switch {
				case wildcardCount < wildcards && i%2 == 0:
					path[i] = types.PathSegment{Wildcard: true}
					wildcardCount++
				case useArray && i%3 == 0:
					path[i] = types.PathSegment{Index: i, IsIndex: true}
				default:
					path[i] = types.PathSegment{Key: "key"}
				}
			}

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Resolve() panicked: %v", r)
				}
			}()

			_, _ = Resolve(path, data)
			return true
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 5),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestResolve_PropertyWildcardDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("object wildcard picks the smallest matching key", prop.ForAll(
		func(keys []string) bool {
			keys = nonEmpty(keys)
			if len(keys) == 0 {
				return true
			}
			data := map[string]any{}
			smallest := keys[0]
			for _, k := range keys {
				data[k] = map[string]any{"value": k}
				if k < smallest {
					smallest = k
				}
			}
			res, err := Resolve([]types.PathSegment{{Wildcard: true}, {Key: "value"}}, data)
			return err == nil && res.Value == smallest
		},
		gen.SliceOfN(8, gen.Identifier()),
	))

	properties.TestingRun(t)
}

func TestSetPath_PropertyCopyOnWrite(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("SetPath never mutates and the value reads back", prop.ForAll(
		func(picks []int, value int) bool {
			if len(picks) == 0 {
				return true
			}
			names := []string{"fixed", "n", "a", "b"}
			path := make([]types.PathSegment, len(picks))
			for i, p := range picks {
				path[i] = types.PathSegment{Key: names[p]}
			}

			in := map[string]any{"fixed": map[string]any{"n": 1}}
			before, _ := json.Marshal(in)

			out, err := SetPath(in, path, value)
			if err != nil {
				// only possible when a key walks into the "fixed.n" scalar
				return errors.Is(err, types.ErrFieldNotFound)
			}
			after, _ := json.Marshal(in)
			if string(before) != string(after) {
				return false
			}
			res, err := Resolve(path, out)
			return err == nil && res.Value == value
		},
		gen.SliceOfN(4, gen.IntRange(0, 3)),
		gen.Int(),
	))

	properties.TestingRun(t)
}
