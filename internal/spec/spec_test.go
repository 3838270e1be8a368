// internal/spec/spec_test.go
package spec

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/easyrules/internal/accessor"
	"github.com/solatis/easyrules/internal/types"
)

type item struct {
	A int
	B string
	C int
}

func TestAttr_ConcreteCondition(t *testing.T) {
	aBetween := Attr(func(i item) int { return i.A }, func(v int) bool { return v >= 10 && v <= 20 })
	bInXY := Attr(func(i item) string { return i.B }, func(v string) bool { return v == "X" || v == "Y" })
	cAfter := Attr(func(i item) int { return i.C }, func(v int) bool { return v >= 2020 })
	cond := aBetween.And(bInXY).And(cAfter)

	tests := []struct {
		name string
		in   item
		want bool
	}{
		{"a below range", item{A: 5, B: "X", C: 2024}, false},
		{"all conditions hold", item{A: 15, B: "Y", C: 2021}, true},
		{"a above range", item{A: 30, B: "Z", C: 2023}, false},
		{"year too early", item{A: 15, B: "X", C: 2019}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cond.Evaluate(tt.in)
			if err != nil {
				t.Fatalf("Evaluate() error = %v, want nil", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// counting returns a leaf that records how often it was evaluated.
func counting(result bool, calls *int) Spec[int] {
	return Func(func(int) bool {
		*calls++
		return result
	})
}

func TestAnd_ShortCircuit(t *testing.T) {
	var left, right int
	s := And(counting(false, &left), counting(true, &right))

	got, err := s.Evaluate(0)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	if got {
		t.Errorf("Evaluate() = true, want false")
	}
	if left != 1 || right != 0 {
		t.Errorf("calls = (%d, %d), want (1, 0)", left, right)
	}
}

func TestOr_ShortCircuit(t *testing.T) {
	var left, right int
	s := Or(counting(true, &left), counting(false, &right))

	got, err := s.Evaluate(0)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	if !got {
		t.Errorf("Evaluate() = false, want true")
	}
	if left != 1 || right != 0 {
		t.Errorf("calls = (%d, %d), want (1, 0)", left, right)
	}
}

func TestEvaluate_PropagatesError(t *testing.T) {
	boom := errors.New("getter failed")
	failing := AttrE(func(int) (int, error) { return 0, boom }, func(int) (bool, error) { return true, nil })

	tests := []struct {
		name string
		s    Spec[int]
	}{
		{"leaf", failing},
		{"and right", And(True[int](), failing)},
		{"or right", Or(False[int](), failing)},
		{"not", Not(failing)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.s.Evaluate(1)
			if err != boom {
				t.Errorf("Evaluate() error = %v, want %v", err, boom)
			}
		})
	}

	// Short-circuit skips the failing operand entirely.
	got, err := And(False[int](), failing).Evaluate(1)
	if err != nil || got {
		t.Errorf("And(False, failing) = %v, %v, want false, nil", got, err)
	}
}

func TestZeroSpec(t *testing.T) {
	var zero Spec[int]
	if !zero.IsZero() {
		t.Fatal("IsZero() = false, want true")
	}
	if _, err := zero.Evaluate(1); !errors.Is(err, types.ErrNilSpecification) {
		t.Errorf("Evaluate() error = %v, want ErrNilSpecification", err)
	}
	if err := And(False[int](), zero).Validate(); !errors.Is(err, types.ErrNilSpecification) {
		t.Errorf("Validate() error = %v, want ErrNilSpecification", err)
	}
	if err := Attr[int, int](nil, nil).Validate(); !errors.Is(err, types.ErrNilSpecification) {
		t.Errorf("Validate(nil getter) error = %v, want ErrNilSpecification", err)
	}
	if err := And(True[int](), Not(False[int]())).Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestAllOfAnyOf_Empty(t *testing.T) {
	all, err := AllOf[int]().Evaluate(0)
	if err != nil || !all {
		t.Errorf("AllOf() = %v, %v, want true, nil", all, err)
	}
	anyv, err := AnyOf[int]().Evaluate(0)
	if err != nil || anyv {
		t.Errorf("AnyOf() = %v, %v, want false, nil", anyv, err)
	}
}

func TestOn_UsesAccessor(t *testing.T) {
	status := accessor.MapKey[string]("status")
	isNew := On(status, func(s string) bool { return s == "NEW" })

	got, err := isNew.Evaluate(map[string]any{"status": "NEW"})
	if err != nil || !got {
		t.Errorf("Evaluate() = %v, %v, want true, nil", got, err)
	}
	_, err = isNew.Evaluate(map[string]any{"status": 7})
	if !errors.Is(err, types.ErrTypeMismatch) {
		t.Errorf("Evaluate() error = %v, want ErrTypeMismatch", err)
	}
	if isNew.String() != "status" {
		t.Errorf("String() = %q, want %q", isNew.String(), "status")
	}
}

func TestString(t *testing.T) {
	vip := Func(func(int) bool { return true }).Named("vip")
	black := Func(func(int) bool { return false }).Named("blacklisted")
	big := Func(func(int) bool { return true }).Named("big")

	s := vip.And(black.Not()).Or(big)
	want := "((vip AND NOT blacklisted) OR big)"
	if s.String() != want {
		t.Errorf("String() = %q, want %q", s.String(), want)
	}
	if s.Kind() != KindOr {
		t.Errorf("Kind() = %v, want or", s.Kind())
	}
	if len(s.Operands()) != 2 {
		t.Errorf("len(Operands()) = %d, want 2", len(s.Operands()))
	}
	if True[int]().String() != "TRUE" {
		t.Errorf("True.String() = %q", True[int]().String())
	}
}

func TestNamed_DoesNotModifyOriginal(t *testing.T) {
	base := Func(func(int) bool { return true })
	named := base.Named("x")
	if base.String() != "<predicate>" {
		t.Errorf("base.String() = %q, want <predicate>", base.String())
	}
	if named.String() != "x" {
		t.Errorf("named.String() = %q, want x", named.String())
	}
}

// threshold builds leaves whose truth value depends on both record and parameter.
func threshold(k int) Spec[int] {
	return Func(func(r int) bool { return r > k })
}

func divisible(m int) Spec[int] {
	return Func(func(r int) bool { return r%m == 0 })
}

func eval(t *testing.T, s Spec[int], r int) bool {
	v, err := s.Evaluate(r)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	return v
}

// Property-based test: boolean algebra laws hold for all records
func TestSpec_PropertyAlgebraLaws(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	leaves := func(k1, k2, m int) (Spec[int], Spec[int], Spec[int]) {
		return threshold(k1), threshold(k2).Not(), divisible(m)
	}

	properties.Property("AND and OR are commutative", prop.ForAll(
		func(r, k1, k2, m int) bool {
			a, b, _ := leaves(k1, k2, m)
			return eval(t, a.And(b), r) == eval(t, b.And(a), r) &&
				eval(t, a.Or(b), r) == eval(t, b.Or(a), r)
		},
		gen.IntRange(-1000, 1000), gen.IntRange(-1000, 1000), gen.IntRange(-1000, 1000), gen.IntRange(1, 7),
	))

	properties.Property("AND and OR are associative", prop.ForAll(
		func(r, k1, k2, m int) bool {
			a, b, c := leaves(k1, k2, m)
			return eval(t, a.And(b).And(c), r) == eval(t, a.And(b.And(c)), r) &&
				eval(t, a.Or(b).Or(c), r) == eval(t, a.Or(b.Or(c)), r)
		},
		gen.IntRange(-1000, 1000), gen.IntRange(-1000, 1000), gen.IntRange(-1000, 1000), gen.IntRange(1, 7),
	))

	properties.Property("De Morgan's laws hold", prop.ForAll(
		func(r, k1, k2, m int) bool {
			a, _, c := leaves(k1, k2, m)
			return eval(t, a.And(c).Not(), r) == eval(t, a.Not().Or(c.Not()), r) &&
				eval(t, a.Or(c).Not(), r) == eval(t, a.Not().And(c.Not()), r)
		},
		gen.IntRange(-1000, 1000), gen.IntRange(-1000, 1000), gen.IntRange(-1000, 1000), gen.IntRange(1, 7),
	))

	properties.Property("double negation is eliminated", prop.ForAll(
		func(r, k1 int) bool {
			a := threshold(k1)
			return eval(t, a.Not().Not(), r) == eval(t, a, r)
		},
		gen.Int(), gen.Int(),
	))

	properties.Property("TRUE and FALSE are identities", prop.ForAll(
		func(r, k1 int) bool {
			a := threshold(k1)
			return eval(t, a.And(True[int]()), r) == eval(t, a, r) &&
				eval(t, a.Or(False[int]()), r) == eval(t, a, r)
		},
		gen.Int(), gen.Int(),
	))

	properties.Property("evaluation is referentially transparent", prop.ForAll(
		func(r, k1, k2, m int) bool {
			a, b, c := leaves(k1, k2, m)
			s := Or(And(a, b), Not(c))
			return eval(t, s, r) == eval(t, s, r)
		},
		gen.Int(), gen.Int(), gen.Int(), gen.IntRange(1, 7),
	))

	properties.TestingRun(t)
}
