package autodiff

// Param is a persistent trainable scalar. It outlives any single tape.
type Param struct {
	Name  string
	Value float64
	Grad  float64
}

func NewParam(name string, value float64) *Param {
	return &Param{Name: name, Value: value}
}

func (p *Param) ZeroGrad() { p.Grad = 0 }

type node struct {
	value    float64
	grad     float64
	parents  [2]int
	partials [2]float64
	arity    int
	param    *Param
}

// Tape is a single-use computation graph. Not safe for concurrent use.
type Tape struct {
	nodes []node
}

func NewTape() *Tape {
	return &Tape{nodes: make([]node, 0, 256)}
}

// Reset discards every recorded node, keeping the allocated capacity.
func (t *Tape) Reset() {
	t.nodes = t.nodes[:0]
}

func (t *Tape) Len() int { return len(t.nodes) }

// Var is a handle to a node on a tape.
type Var struct {
	tape *Tape
	idx  int
}

func (v *Var) Value() float64 { return v.tape.nodes[v.idx].value }

// Grad is the adjoint computed by the last Backward call on this tape.
func (v *Var) Grad() float64 { return v.tape.nodes[v.idx].grad }

func (t *Tape) push(n node) *Var {
	t.nodes = append(t.nodes, n)
	return &Var{tape: t, idx: len(t.nodes) - 1}
}

func (t *Tape) Const(c float64) *Var {
	return t.push(node{value: c})
}

// Leaf binds p to a new node. Backward accumulates into p.Grad.
func (t *Tape) Leaf(p *Param) *Var {
	return t.push(node{value: p.Value, param: p})
}

func (t *Tape) unary(a *Var, value, da float64) *Var {
	return t.push(node{
		value:    value,
		parents:  [2]int{a.idx},
		partials: [2]float64{da},
		arity:    1,
	})
}

func (t *Tape) binary(a, b *Var, value, da, db float64) *Var {
	return t.push(node{
		value:    value,
		parents:  [2]int{a.idx, b.idx},
		partials: [2]float64{da, db},
		arity:    2,
	})
}

func (t *Tape) Add(a, b *Var) *Var {
	return t.binary(a, b, a.Value()+b.Value(), 1, 1)
}

func (t *Tape) Sub(a, b *Var) *Var {
	return t.binary(a, b, a.Value()-b.Value(), 1, -1)
}

func (t *Tape) Mul(a, b *Var) *Var {
	av, bv := a.Value(), b.Value()
	return t.binary(a, b, av*bv, bv, av)
}

func (t *Tape) Div(a, b *Var) *Var {
	av, bv := a.Value(), b.Value()
	return t.binary(a, b, av/bv, 1/bv, -av/(bv*bv))
}

func (t *Tape) Neg(a *Var) *Var {
	return t.unary(a, -a.Value(), -1)
}

func (t *Tape) Square(a *Var) *Var {
	av := a.Value()
	return t.unary(a, av*av, 2*av)
}

// Sum folds xs left to right. An empty input yields the constant 0.
func (t *Tape) Sum(xs []*Var) *Var {
	if len(xs) == 0 {
		return t.Const(0)
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		acc = t.Add(acc, x)
	}
	return acc
}

// Backward seeds out with 1 and propagates adjoints to every node recorded
// before it, adding leaf adjoints into their Param.Grad.
func (t *Tape) Backward(out *Var) {
	for i := range t.nodes {
		t.nodes[i].grad = 0
	}
	t.nodes[out.idx].grad = 1

	for i := out.idx; i >= 0; i-- {
		n := &t.nodes[i]
		if n.grad == 0 {
			continue
		}
		for k := 0; k < n.arity; k++ {
			t.nodes[n.parents[k]].grad += n.grad * n.partials[k]
		}
		if n.param != nil {
			n.param.Grad += n.grad
		}
	}
}
