package loader

import "github.com/viant/afs"

// Option customises the loader service.
type Option func(s *Service)

// WithFS overrides the abstract file system used to resolve URLs.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}
