// Package model contains the in-memory representation of workflow
// declarations: the per-node declaration (handler, parents, execution-policy
// flags) and the named workflow that aggregates them together with the
// shared-context factory.  Declarations are static and user-owned; the graph
// compiler only reads them.
package model
