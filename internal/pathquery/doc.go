// Package pathquery compiles a small JSONPath-like dialect into reusable
// plans and evaluates them against in-memory documents, producing the paths
// of the nodes that match.
//
// Supported productions:
//   - Anchors '$' (document root) and '@' (current node in sub-queries)
//   - Child '.name' and descendant '..name' segments, wildcard '*'
//   - Bracket selectors: ['quoted name'], [index] with negative addressing,
//     [*], and predicates [?(subquery)] / [?(!subquery)]
//   - Trailing comparisons inside predicates: == != < <= > >= ^= $= *=
//     with a JSON literal on the right-hand side
//
// A query either parses as a whole or not at all; there is no partial-plan
// recovery. Plans are immutable and safe for concurrent evaluation against
// different documents. Evaluation is read-only; callers that want to mutate
// a matched node do so through Resolve.
package pathquery
