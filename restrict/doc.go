// Package restrict enforces the section 7 restrictions of RELAX NG on
// the compiled model graph, after compilation and before validation.
//
// The checker walks the graph carrying the restriction-relevant
// context (inside list, inside data/except, inside attribute, inside
// oneOrMore) and a visited set keyed on define identity so cyclic
// reference graphs terminate. Patterns that simplify to notAllowed
// are skipped: full simplification would have eliminated them.
package restrict
