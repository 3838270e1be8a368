// internal/types/rules.go
package types

/*
 * Declarative rule definitions.
 *
 * Provides RuleSet, RuleDef, Condition, Action and PathSegment structures used
 * by internal/rules for loading and compilation. These types mirror the rule
 * file format (YAML or JSON) one-to-one; string enums are validated at compile
 * time, not at decode time.
 *
 * Key types:
 *   - RuleSet: Named, ordered list of rule definitions plus engine policy
 *   - RuleDef: Condition tree, action list and match metadata for one rule
 *   - Condition: all/any/not group or a single field comparison
 *   - Action: One field-level update (set, increment, append, remove)
 *   - PathSegment: One component of a field path (key, index, or wildcard)
 */

// PathSegment represents one component of a field path.
// String for object keys, int for array indices, wildcard for array expansion.
type PathSegment struct {
	Key      string // object key (mutually exclusive with Index/Wildcard)
	Index    int    // array index (mutually exclusive with Key/Wildcard)
	IsIndex  bool   // disambiguates Index=0 from unset
	Wildcard bool   // true = wildcard segment
}

// Condition is a node of a declarative condition tree. Exactly one of All,
// Any, Not, Script or Field is expected to be set.
type Condition struct {
	All []Condition `yaml:"all,omitempty" json:"all,omitempty"`
	Any []Condition `yaml:"any,omitempty" json:"any,omitempty"`
	Not *Condition  `yaml:"not,omitempty" json:"not,omitempty"`

	// Script is a JavaScript expression over `record` that must yield a
	// boolean. It is a leaf of its own and excludes Field.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`

	Field          string `yaml:"field,omitempty" json:"field,omitempty"`
	Op             string `yaml:"op,omitempty" json:"op,omitempty"`
	Value          any    `yaml:"value,omitempty" json:"value,omitempty"`
	Values         []any  `yaml:"values,omitempty" json:"values,omitempty"`
	FieldRef       string `yaml:"field_ref,omitempty" json:"field_ref,omitempty"`
	Type           string `yaml:"type,omitempty" json:"type,omitempty"`
	OnMissing      string `yaml:"on_missing,omitempty" json:"on_missing,omitempty"`
	OnCoercionFail string `yaml:"on_coercion_fail,omitempty" json:"on_coercion_fail,omitempty"`
}

// Action is a single field update. Exactly one verb (Set, Increment, Append,
// Remove) names the target path.
type Action struct {
	Set       string `yaml:"set,omitempty" json:"set,omitempty"`
	Increment string `yaml:"increment,omitempty" json:"increment,omitempty"`
	Append    string `yaml:"append,omitempty" json:"append,omitempty"`
	Remove    string `yaml:"remove,omitempty" json:"remove,omitempty"`
	Value     any    `yaml:"value,omitempty" json:"value,omitempty"`
	Unique    bool   `yaml:"unique,omitempty" json:"unique,omitempty"`

	// Script computes the value for Set from `record` instead of Value.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`
}

// RuleDef is one declarative rule. A nil When matches every record; an empty
// Then leaves matching records unchanged.
type RuleDef struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Priority    int        `yaml:"priority,omitempty" json:"priority,omitempty"`
	StopOnMatch bool       `yaml:"stop_on_match,omitempty" json:"stop_on_match,omitempty"`
	When        *Condition `yaml:"when,omitempty" json:"when,omitempty"`
	Then        []Action   `yaml:"then,omitempty" json:"then,omitempty"`
}

// RuleSet is an ordered list of rules plus the engine policy to run them with.
// KeepUnmatched is a pointer so that an absent key keeps the engine default.
type RuleSet struct {
	Name          string    `yaml:"name,omitempty" json:"name,omitempty"`
	MatchMode     string    `yaml:"match_mode,omitempty" json:"match_mode,omitempty"`
	KeepUnmatched *bool     `yaml:"keep_unmatched,omitempty" json:"keep_unmatched,omitempty"`
	Rules         []RuleDef `yaml:"rules" json:"rules"`
}
