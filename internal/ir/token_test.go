package ir

import "testing"

func TestTokenCounterProducesValidTokens(t *testing.T) {
	var tc TokenCounter
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := tc.Next(TokenColumn)
		if !ValidToken(tok) {
			t.Fatalf("token %q does not match expected shape", tok)
		}
		if tok[0] != 'c' {
			t.Fatalf("token %q missing column prefix", tok)
		}
		if seen[tok] {
			t.Fatalf("token %q generated twice", tok)
		}
		seen[tok] = true
	}
}

func TestValidToken(t *testing.T) {
	cases := map[string]bool{
		"c00001": true,
		"t0a9zz": true,
		"c0001":  false, // too short
		"c00001x": false, // too long
		"cABCDE": false, // uppercase not allowed
	}
	for tok, want := range cases {
		if got := ValidToken(tok); got != want {
			t.Errorf("ValidToken(%q) = %v, want %v", tok, got, want)
		}
	}
}
