package gate

// AccessGate grants the privileged-caller capability. All administrative
// engine operations check it before mutating state.
type AccessGate interface {
	IsPrivileged(caller string) bool
}

// StaticGate is an AccessGate backed by a fixed address allowlist, built from
// configuration at startup.
type StaticGate struct {
	privileged map[string]struct{}
}

// NewStaticGate builds a gate from a list of privileged addresses.
func NewStaticGate(addresses []string) *StaticGate {
	privileged := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		privileged[addr] = struct{}{}
	}
	return &StaticGate{privileged: privileged}
}

// IsPrivileged reports whether caller holds the privileged capability.
func (g *StaticGate) IsPrivileged(caller string) bool {
	_, ok := g.privileged[caller]
	return ok
}
