// Package policy provides a simple, optional per-node execution policy that
// can be attached to a run via context or supplied as the build's autorun
// predicate.  It is deliberately decoupled from the rest of the module so
// that using it is entirely opt-in - runs that carry no policy keep the
// default "auto" behaviour.
package policy

import (
	"context"
	"strings"
)

// Execution modes recognised by runners.
const (
	ModeAuto   = "auto"   // downstream nodes run automatically (default)
	ModeManual = "manual" // nodes run only when explicitly executed
	ModeDeny   = "deny"   // block execution
)

// Policy represents the autorun settings for a workflow run.
//
//   - Mode controls the high-level behaviour (auto / manual / deny).
//   - AllowList, BlockList allow coarse per-node filtering regardless of Mode.
//
// A nil *Policy means "run everything automatically" and is therefore the
// zero-cost default.
type Policy struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// IsAllowed evaluates AllowList / BlockList for the given node name. Both
// lists match by exact, case-insensitive comparison. BlockList has priority.
func (p *Policy) IsAllowed(node string) bool {
	if p == nil {
		return true
	}
	normalized := strings.ToLower(node)
	for _, blocked := range p.BlockList {
		if normalized == strings.ToLower(blocked) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, allowed := range p.AllowList {
		if normalized == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// Autorun reports whether the named node may be started automatically as a
// downstream dependency. The method value satisfies the build's autorun
// predicate.
func (p *Policy) Autorun(node string) bool {
	if p == nil {
		return true
	}
	if p.Mode == ModeManual || p.Mode == ModeDeny {
		return false
	}
	return p.IsAllowed(node)
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy embedded in ctx, if any.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
