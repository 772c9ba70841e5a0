package service

import "strings"

type GateMode string

const (
	// GateOpen authorizes every authenticated identity. It is selected
	// explicitly by configuring an empty allow-list.
	GateOpen GateMode = "open"

	// GateAllowList authorizes only identities on the list.
	GateAllowList GateMode = "allowlist"
)

// OperatorGate answers whether an already authenticated operator may write
// log entries. It does not authenticate.
type OperatorGate struct {
	mode    GateMode
	allowed map[string]struct{}
}

// NewOperatorGate builds a gate from an allow-list. Entries are compared
// case-insensitively; blank entries are dropped. An empty list selects
// GateOpen.
func NewOperatorGate(allowList []string) *OperatorGate {
	g := &OperatorGate{mode: GateOpen, allowed: make(map[string]struct{})}
	for _, id := range allowList {
		id = normalizeIdentity(id)
		if id == "" {
			continue
		}
		g.allowed[id] = struct{}{}
	}
	if len(g.allowed) > 0 {
		g.mode = GateAllowList
	}
	return g
}

func (g *OperatorGate) Mode() GateMode { return g.mode }

func (g *OperatorGate) Size() int { return len(g.allowed) }

// IsAuthorized never authorizes a blank identity, even in open mode.
func (g *OperatorGate) IsAuthorized(identity string) bool {
	identity = normalizeIdentity(identity)
	if identity == "" {
		return false
	}
	if g.mode == GateOpen {
		return true
	}
	_, ok := g.allowed[identity]
	return ok
}

func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
