// Package loader decodes workflow declarations from YAML documents reachable
// through the viant/afs abstract file system and binds their declared actions
// to registered handlers.
package loader
