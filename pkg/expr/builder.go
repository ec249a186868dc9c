package expr

import (
	"fmt"
	"math"
)

// Builder constructs Nodes with structural-hash deduplication (two calls
// building an equal subtree return the same *Node) and a configured size
// ceiling, past which construction fails instead of silently growing an
// expression nobody intended to be that large.
type Builder struct {
	cache     map[string]*Node
	maxSize   int
	constants map[float64]*Node
}

// NewBuilder returns a Builder that refuses to build any unary, binary or
// comparison node whose subtree size (its own node count, see Node.Size)
// exceeds maxSize. Pass 0 for no bound.
func NewBuilder(maxSize int) *Builder {
	return &Builder{
		cache:     make(map[string]*Node),
		maxSize:   maxSize,
		constants: make(map[float64]*Node),
	}
}

func (b *Builder) intern(n *Node) (*Node, error) {
	if existing, ok := b.cache[n.key]; ok {
		return existing, nil
	}
	if b.maxSize > 0 && n.size > b.maxSize {
		return nil, fmt.Errorf("expr: expression size %d exceeds configured bound %d", n.size, b.maxSize)
	}
	b.cache[n.key] = n
	return n, nil
}

// Const returns a shared constant node.
func (b *Builder) Const(v float64) *Node {
	if existing, ok := b.constants[v]; ok {
		return existing
	}
	n := &Node{kind: KindConst, constVal: v, size: 1, key: fmt.Sprintf("c:%v", v)}
	b.cache[n.key] = n
	b.constants[v] = n
	return n
}

// Var returns a shared variable-reference node.
func (b *Builder) Var(name string) *Node {
	key := "v:" + name
	if existing, ok := b.cache[key]; ok {
		return existing
	}
	n := &Node{kind: KindVar, varName: name, size: 1, key: key}
	b.cache[key] = n
	return n
}

// Unary builds a unary node, folding immediately if a is a constant.
func (b *Builder) Unary(op UnaryOp, a *Node) (*Node, error) {
	if a.kind == KindConst {
		switch op {
		case Neg:
			return b.Const(-a.constVal), nil
		case Sqrt:
			if a.constVal < 0 {
				return nil, fmt.Errorf("expr: sqrt of negative constant %g", a.constVal)
			}
			return b.Const(math.Sqrt(a.constVal)), nil
		}
	}
	n := &Node{
		kind: KindUnary, unaryOp: op, children: []*Node{a},
		size: 1 + a.size,
		key:  fmt.Sprintf("u:%d(%s)", op, a.key),
	}
	return b.intern(n)
}

// Binary builds a binary node, folding immediately when both operands are
// constants, and applying the cheap identities (x+0, x*1, x*0, x-0, x/1,
// x**1, x**0) otherwise.
func (b *Builder) Binary(op BinaryOp, a, x *Node) (*Node, error) {
	if a.kind == KindConst && x.kind == KindConst {
		v, err := foldBinary(op, a.constVal, x.constVal)
		if err != nil {
			return nil, err
		}
		return b.Const(v), nil
	}
	if op == Pow && isConst(x, 0) {
		return b.Const(1), nil
	}
	if folded, ok := identityFold(op, a, x); ok {
		return folded, nil
	}
	n := &Node{
		kind: KindBinary, binaryOp: op, children: []*Node{a, x},
		size: 1 + a.size + x.size,
		key:  fmt.Sprintf("b:%d(%s,%s)", op, a.key, x.key),
	}
	return b.intern(n)
}

func foldBinary(op BinaryOp, a, x float64) (float64, error) {
	switch op {
	case Add:
		return a + x, nil
	case Sub:
		return a - x, nil
	case Mul:
		return a * x, nil
	case Div:
		if x == 0 {
			return 0, fmt.Errorf("expr: division by zero constant")
		}
		return a / x, nil
	case Pow:
		return math.Pow(a, x), nil
	}
	return 0, fmt.Errorf("expr: unknown binary op %v", op)
}

func identityFold(op BinaryOp, a, x *Node) (*Node, bool) {
	switch op {
	case Add:
		if isConst(a, 0) {
			return x, true
		}
		if isConst(x, 0) {
			return a, true
		}
	case Sub:
		if isConst(x, 0) {
			return a, true
		}
	case Mul:
		if isConst(a, 1) {
			return x, true
		}
		if isConst(x, 1) {
			return a, true
		}
		if isConst(a, 0) {
			return a, true
		}
		if isConst(x, 0) {
			return x, true
		}
	case Div:
		if isConst(x, 1) {
			return a, true
		}
	case Pow:
		if isConst(x, 1) {
			return a, true
		}
	}
	return nil, false
}

func isConst(n *Node, v float64) bool {
	return n.kind == KindConst && n.constVal == v
}

// Compare builds a comparison node.
func (b *Builder) Compare(op CompareOp, a, x *Node) (*Node, error) {
	if a.kind == KindConst && x.kind == KindConst {
		var result bool
		switch op {
		case LE:
			result = a.constVal <= x.constVal
		case GE:
			result = a.constVal >= x.constVal
		case EQ:
			result = a.constVal == x.constVal
		}
		return b.Const(boolFloat(result)), nil
	}
	n := &Node{
		kind: KindCompare, compareOp: op, children: []*Node{a, x},
		size: 1 + a.size + x.size,
		key:  fmt.Sprintf("p:%d(%s,%s)", op, a.key, x.key),
	}
	return b.intern(n)
}

// Sum folds a slice of nodes left-to-right with Add, returning the
// builder's zero constant for an empty slice.
func (b *Builder) Sum(terms []*Node) (*Node, error) {
	if len(terms) == 0 {
		return b.Const(0), nil
	}
	acc := terms[0]
	var err error
	for _, t := range terms[1:] {
		acc, err = b.Binary(Add, acc, t)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
