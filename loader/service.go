package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/taskdag/taskdag/model"
)

// Service loads workflow declarations from YAML documents addressed by afs
// URLs (file, mem, embed, cloud).  Handlers cannot travel in a document, so
// each node names an action that the service resolves against its registered
// handler set.
type Service struct {
	fs       afs.Service
	mux      sync.RWMutex
	handlers map[string]model.Handler
}

// New creates a loader service.
func New(options ...Option) *Service {
	ret := &Service{
		fs:       afs.New(),
		handlers: make(map[string]model.Handler),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Register binds a handler to an action name.
func (s *Service) Register(action string, handler model.Handler) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.handlers[action] = handler
}

// handler returns the handler registered under action, if any.
func (s *Service) handler(action string) (model.Handler, bool) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ret, ok := s.handlers[action]
	return ret, ok
}

// Load loads a workflow declaration from YAML at the specified URL.
func (s *Service) Load(ctx context.Context, URL string) (*model.Workflow, error) {
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow from %s: %w", URL, err)
	}
	workflow, err := s.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow from %s: %w", URL, err)
	}
	workflow.Source = &model.Source{URL: URL}
	if workflow.Name == "" {
		workflow.Name = nameFromURL(URL)
	}
	return workflow, nil
}

// document is the YAML projection of a workflow declaration.
type document struct {
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Version     string                 `yaml:"version"`
	Context     map[string]interface{} `yaml:"context"`
	Nodes       map[string]*model.Node `yaml:"nodes"`
}

// DecodeYAML decodes a workflow declaration and resolves every node's action
// to a registered handler.
func (s *Service) DecodeYAML(encoded []byte) (*model.Workflow, error) {
	doc := &document{}
	if err := yaml.Unmarshal(encoded, doc); err != nil {
		return nil, err
	}
	workflow := &model.Workflow{
		Name:        doc.Name,
		Description: doc.Description,
		Version:     doc.Version,
		Nodes:       doc.Nodes,
	}
	if doc.Context != nil {
		seed := doc.Context
		workflow.NewContext = func() map[string]interface{} {
			fresh := make(map[string]interface{}, len(seed))
			for k, v := range seed {
				fresh[k] = v
			}
			return fresh
		}
	}
	for name, node := range workflow.Nodes {
		if node == nil {
			return nil, fmt.Errorf("node %q has no declaration", name)
		}
		if node.Action == "" {
			return nil, fmt.Errorf("node %q declares no action", name)
		}
		handler, ok := s.handler(node.Action)
		if !ok {
			return nil, fmt.Errorf("no handler registered for action %q (node %q)", node.Action, name)
		}
		node.Run = handler
	}
	return workflow, nil
}

// nameFromURL extracts the workflow name from a URL (file name without
// extension).
func nameFromURL(URL string) string {
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
