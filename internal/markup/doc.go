// Package markup recovers a positioned element model from AI-generated poster
// markup.
//
// Two generation dialects are recognized:
//
//   - Tagged: a single flat container (class "poster-container") whose
//     children carry class names, styled by an embedded stylesheet keyed on
//     those classes. No nesting.
//   - Generic: arbitrary nested markup with inline positional styles. This is
//     the fallback whenever the tagged container is absent.
//
// The stylesheet reader is a permissive scanner, not a CSS parser. It matches
// "selector { decl; decl; }" blocks and skips anything it cannot read. A
// stricter grammar would reject output the generators routinely produce.
//
// Nothing in this package returns an error: malformed input degrades to
// defaults and the caller decides what to flag.
package markup
