package auth

import "testing"

func TestAuthorize(t *testing.T) {
	g := NewGate("secret")
	if !g.Authorize("secret") {
		t.Fatal("correct key rejected")
	}
	if g.Authorize("Secret") || g.Authorize("secret ") || g.Authorize("") {
		t.Fatal("near-miss key accepted")
	}
}

func TestEmptyKeyAuthorizesNobody(t *testing.T) {
	g := NewGate("")
	if g.Authorize("") || g.Authorize("anything") {
		t.Fatal("empty gate let someone in")
	}
}
