package symtab

import "fmt"

// Symbol is the canonical node for one followed identity: the thing a name
// means once every alias and re-export between the consumer and the original
// declaration has been walked. The table guarantees at most one Symbol per
// followed identity and, when import context is known, at most one Symbol per
// ImportRef.
type Symbol struct {
	localName string
	ident     Ident
	importRef *ImportRef
	parent    *Symbol

	// nominal symbols are deliberately opaque: they exist so references to
	// them can be recorded, but their declarations are never expanded.
	nominal bool

	// imported transitions false to true exactly once, at construction,
	// when the symbol is registered with import context. Claiming an
	// already-registered non-imported symbol as imported is an integrity
	// violation, not a state transition.
	imported bool

	// analyzed lives on root symbols only; members read it through Root().
	analyzed bool

	declarations []*Declaration
}

// LocalName returns the name the identity was declared under.
func (s *Symbol) LocalName() string { return s.localName }

// Ident returns the followed identity this symbol is keyed by.
func (s *Symbol) Ident() Ident { return s.ident }

// ImportRef returns the import identity this symbol was registered under, or
// nil for local declarations.
func (s *Symbol) ImportRef() *ImportRef { return s.importRef }

// Parent returns the symbol of the nearest enclosing declaration, or nil for
// top-level symbols.
func (s *Symbol) Parent() *Symbol { return s.parent }

// Root returns the outermost ancestor in the parent chain, or s itself when
// it has no parent. Analysis always operates at root granularity.
func (s *Symbol) Root() *Symbol {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Nominal reports whether the symbol is an opaque reference that analysis
// never expands.
func (s *Symbol) Nominal() bool { return s.nominal }

// Imported reports whether the symbol was registered with import context.
func (s *Symbol) Imported() bool { return s.imported }

// Analyzed reports whether the symbol's family has been fully analyzed. The
// flag is carried by the root, so analyzing a root flips every member of the
// merged-declaration family at once.
func (s *Symbol) Analyzed() bool { return s.Root().analyzed }

// Declarations returns the symbol's declaration nodes, one per merged
// syntactic declaration, in source order.
func (s *Symbol) Declarations() []*Declaration {
	out := make([]*Declaration, len(s.declarations))
	copy(out, s.declarations)
	return out
}

// markAnalyzed flips the one-shot analysis flag. The flag belongs to root
// symbols; being handed a member means the caller lost track of root
// granularity.
func (s *Symbol) markAnalyzed() error {
	if s.parent != nil {
		return fmt.Errorf("%w: analysis flag belongs to root symbols, got member %q", ErrInternal, s.localName)
	}
	s.analyzed = true
	return nil
}

func (s *Symbol) String() string {
	if s.importRef != nil {
		return fmt.Sprintf("%s (imported %s)", s.localName, s.importRef)
	}
	return s.localName
}
