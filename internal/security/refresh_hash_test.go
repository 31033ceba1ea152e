package security

import "testing"

func TestHashRefreshToken(t *testing.T) {
	a := HashRefreshToken("token-a")
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 (SHA-256 hex)", len(a))
	}
	if a != HashRefreshToken("token-a") {
		t.Error("same token produced different digests")
	}
	if a == HashRefreshToken("token-b") {
		t.Error("different tokens produced the same digest")
	}
}

func TestRefreshTokenHashEqual(t *testing.T) {
	stored := HashRefreshToken("the-token")

	if !RefreshTokenHashEqual("the-token", stored) {
		t.Error("correct token did not match stored digest")
	}
	if RefreshTokenHashEqual("other-token", stored) {
		t.Error("wrong token matched stored digest")
	}
	if RefreshTokenHashEqual("the-token", "a"+stored) {
		t.Error("digest of different length matched")
	}
	if RefreshTokenHashEqual("", "") {
		t.Error("empty inputs matched")
	}
}
