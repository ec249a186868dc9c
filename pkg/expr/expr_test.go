package expr

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestConstFolding(t *testing.T) {
	b := NewBuilder(0)
	n, err := b.Binary(Add, b.Const(2), b.Const(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.kind != KindConst || n.constVal != 5 {
		t.Errorf("expected folded constant 5, got kind=%v val=%v", n.kind, n.constVal)
	}
}

func TestIdentityFoldingAddZero(t *testing.T) {
	b := NewBuilder(0)
	x := b.Var("x")
	n, err := b.Binary(Add, x, b.Const(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != x {
		t.Error("x + 0 should fold to the same node as x")
	}
}

func TestIdentityFoldingMulOne(t *testing.T) {
	b := NewBuilder(0)
	x := b.Var("x")
	n, err := b.Binary(Mul, b.Const(1), x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != x {
		t.Error("1 * x should fold to the same node as x")
	}
}

func TestStructuralDedup(t *testing.T) {
	b := NewBuilder(0)
	x := b.Var("x")
	y := b.Var("y")
	n1, err := b.Binary(Add, x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n2, err := b.Binary(Add, x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n1 != n2 {
		t.Error("building the same subtree twice should return the same node")
	}
}

func TestSizeBoundRejectsOversizedExpression(t *testing.T) {
	b := NewBuilder(3)
	x := b.Var("x")
	y := b.Var("y")
	z := b.Var("z")
	sum, err := b.Binary(Add, x, y)
	if err != nil {
		t.Fatalf("unexpected error building within bound: %v", err)
	}
	if _, err := b.Binary(Add, sum, z); err == nil {
		t.Fatal("expected error when expression exceeds size bound")
	}
}

func TestEvalVariable(t *testing.T) {
	b := NewBuilder(0)
	x := b.Var("x")
	y := b.Var("y")
	sum, err := b.Binary(Add, x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := sum.Eval(map[string]float64{"x": 2, "y": 3}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5 {
		t.Errorf("Eval() = %v, want 5", got)
	}
}

func TestEvalMissingVariable(t *testing.T) {
	b := NewBuilder(0)
	x := b.Var("x")
	if _, err := x.Eval(map[string]float64{}, 1); err == nil {
		t.Fatal("expected error for missing variable")
	}
}

func TestEvalCachesByVersion(t *testing.T) {
	b := NewBuilder(0)
	x := b.Var("x")
	env := map[string]float64{"x": 1}
	v1, err := x.Eval(env, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env["x"] = 99
	v2, err := x.Eval(env, 1) // same version: should return cached value
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v1 != v2 {
		t.Errorf("same-version Eval should be cached: got %v then %v", v1, v2)
	}
	v3, err := x.Eval(env, 2) // new version: recomputes
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v3 != 99 {
		t.Errorf("new-version Eval should recompute: got %v, want 99", v3)
	}
}

func TestVarsCollectsDistinctNames(t *testing.T) {
	b := NewBuilder(0)
	x := b.Var("x")
	y := b.Var("y")
	sum, err := b.Binary(Add, x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum2, err := b.Binary(Add, sum, x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vars := sum2.Vars()
	if len(vars) != 2 || !vars["x"] || !vars["y"] {
		t.Errorf("Vars() = %v, want {x, y}", vars)
	}
}

// TestProperty_BinaryEvalMatchesFold checks that evaluating a freshly-built
// binary expression over random constants matches direct arithmetic.
func TestProperty_BinaryEvalMatchesFold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewBuilder(0)
		a := rapid.Float64Range(-100, 100).Draw(t, "a")
		c := rapid.Float64Range(-100, 100).Draw(t, "c")
		n, err := b.Binary(Add, b.Const(a), b.Const(c))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := n.Eval(nil, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := a + c
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("Eval() = %v, want %v", got, want)
		}
	})
}
