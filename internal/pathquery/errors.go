package pathquery

import "errors"

// ErrSyntax indicates a query expression that does not parse. The whole
// query is rejected; there are no partial-plan semantics.
var ErrSyntax = errors.New("pathquery: syntax error")
