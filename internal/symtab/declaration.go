package symtab

// Declaration wraps one syntactic declaration site of a symbol. Ownership
// flows strictly from Symbol to its Declarations; the parent link is a
// non-owning back-reference mirroring lexical nesting and never changes after
// construction. The only mutation a Declaration ever sees is the monotonic
// accumulation of referenced symbols and of children discovered during
// analysis.
type Declaration struct {
	node   Node
	symbol *Symbol
	parent *Declaration

	children   []*Declaration
	referenced []*Symbol
	refSeen    map[*Symbol]struct{}
}

func newDeclaration(n Node, owner *Symbol, parent *Declaration) *Declaration {
	d := &Declaration{node: n, symbol: owner, parent: parent}
	if parent != nil {
		parent.children = append(parent.children, d)
	}
	return d
}

// Node returns the syntax node this declaration wraps.
func (d *Declaration) Node() Node { return d.node }

// Symbol returns the owning symbol.
func (d *Declaration) Symbol() *Symbol { return d.symbol }

// Parent returns the declaration of the nearest enclosing declaration-bearing
// node, or nil at top level.
func (d *Declaration) Parent() *Declaration { return d.parent }

// Children returns the child declarations discovered during analysis, in
// source order.
func (d *Declaration) Children() []*Declaration {
	out := make([]*Declaration, len(d.children))
	copy(out, d.children)
	return out
}

// ReferencedSymbols returns the symbols this declaration references, in the
// order they were first recorded.
func (d *Declaration) ReferencedSymbols() []*Symbol {
	out := make([]*Symbol, len(d.referenced))
	copy(out, d.referenced)
	return out
}

// Walk visits d and every descendant declaration, parents before children.
func (d *Declaration) Walk(fn func(*Declaration)) {
	fn(d)
	for _, c := range d.children {
		c.Walk(fn)
	}
}

// addReference records sym as referenced by this declaration. Duplicates are
// dropped so repeated analysis walks stay idempotent.
func (d *Declaration) addReference(sym *Symbol) {
	if d.refSeen == nil {
		d.refSeen = make(map[*Symbol]struct{})
	}
	if _, ok := d.refSeen[sym]; ok {
		return
	}
	d.refSeen[sym] = struct{}{}
	d.referenced = append(d.referenced, sym)
}
