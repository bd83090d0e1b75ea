// Package analysis performs static structural analysis of a workflow's node
// mapping: root and leaf detection, referential-integrity checks and cycle
// detection.  It is a pure function over declarations - stateless, no side
// effects - and runs before any run-time resource is touched.
package analysis
