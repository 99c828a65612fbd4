package symtab

import "errors"

// The two failure classes. Both are fatal to the current analysis run; the
// table never retries because the oracle is deterministic.
//
// ErrUnsupported covers bad input: an entry-point export that cannot be
// resolved to a supported construct, or an export declaration written in a
// form the analyzer does not handle.
//
// ErrInternal covers violated assumptions between the table and its oracle:
// a missing parent declaration, a specifier that stops resolving after the
// oracle surfaced it, an import-consistency violation, a merged declaration
// that is not declaration-bearing, or a re-export whose target name cannot
// be found anywhere. These always indicate a defect, never a user mistake
// the analyzer is expected to tolerate.
var (
	ErrUnsupported = errors.New("unsupported construct")
	ErrInternal    = errors.New("internal consistency violation")
)
