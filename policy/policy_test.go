package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutorun(t *testing.T) {
	type testCase struct {
		name   string
		policy *Policy
		node   string
		expect bool
	}

	tests := []testCase{
		{name: "nil policy allows", policy: nil, node: "any", expect: true},
		{name: "default mode allows", policy: &Policy{}, node: "any", expect: true},
		{name: "manual mode vetoes", policy: &Policy{Mode: ModeManual}, node: "any", expect: false},
		{name: "deny mode vetoes", policy: &Policy{Mode: ModeDeny}, node: "any", expect: false},
		{name: "block list vetoes", policy: &Policy{BlockList: []string{"secret"}}, node: "secret", expect: false},
		{name: "block list is case insensitive", policy: &Policy{BlockList: []string{"Secret"}}, node: "secret", expect: false},
		{name: "allow list admits listed", policy: &Policy{AllowList: []string{"listed"}}, node: "listed", expect: true},
		{name: "allow list vetoes unlisted", policy: &Policy{AllowList: []string{"listed"}}, node: "other", expect: false},
		{
			name:   "block beats allow",
			policy: &Policy{AllowList: []string{"both"}, BlockList: []string{"both"}},
			node:   "both",
			expect: false,
		},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expect, tc.policy.Autorun(tc.node), tc.name)
	}
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	assert.Nil(t, FromContext(nil))

	p := &Policy{Mode: ModeManual}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
}
