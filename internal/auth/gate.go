package auth

import "crypto/subtle"

// Gate is the shared-secret admin check. It answers one question — is this
// caller the operator — and nothing else; the market trusts the boolean
// fully. There is deliberately no player authentication in this system.
type Gate struct {
	key string
}

func NewGate(key string) *Gate {
	return &Gate{key: key}
}

// Authorize reports whether candidate matches the operator key. Constant
// time, and an empty configured key authorizes nobody.
func (g *Gate) Authorize(candidate string) bool {
	if g == nil || g.key == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(g.key)) == 1
}
