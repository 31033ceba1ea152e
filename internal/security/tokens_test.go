package security

import (
	"testing"
	"time"
)

func TestIssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	token, jti, expiresAt, err := p.IssueAccess("sess-1", "user-1", "org-1", "manager")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("IssueAccess returned empty token or jti")
	}
	if !expiresAt.After(time.Now()) {
		t.Error("access token already expired")
	}

	id, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if id.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", id.UserID, "user-1")
	}
	if id.OrgID != "org-1" {
		t.Errorf("OrgID = %q, want %q", id.OrgID, "org-1")
	}
	if id.Role != "manager" {
		t.Errorf("Role = %q, want %q", id.Role, "manager")
	}
	if id.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", id.SessionID, "sess-1")
	}
}

func TestIssueAndValidateRefresh(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	token, jti, _, err := p.IssueRefresh("sess-2", "user-2", "org-2")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	sessionID, gotJTI, userID, orgID, err := p.ValidateRefresh(token)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if sessionID != "sess-2" || userID != "user-2" || orgID != "org-2" {
		t.Errorf("ValidateRefresh = (%q, %q, %q), want (sess-2, user-2, org-2)", sessionID, userID, orgID)
	}
	if gotJTI != jti {
		t.Errorf("jti = %q, want %q", gotJTI, jti)
	}
}

func TestValidateAccess_Garbage(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.ValidateAccess("not-a-jwt"); err == nil {
		t.Fatal("ValidateAccess with garbage should fail")
	}
}

func TestValidateAccess_WrongAudience(t *testing.T) {
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub, err := ParsePublicKey(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	issuerA := NewTokenProvider(signer, pub, "test-issuer", "aud-a", time.Minute, time.Hour)
	issuerB := NewTokenProvider(signer, pub, "test-issuer", "aud-b", time.Minute, time.Hour)

	token, _, _, err := issuerA.IssueAccess("s", "u", "o", "rep")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := issuerB.ValidateAccess(token); err == nil {
		t.Fatal("ValidateAccess should reject wrong audience")
	}
}

func TestValidateRefresh_RejectsAccessClaims(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	// An expired access token must never validate.
	expired := NewTokenProvider(p.privateKey, p.publicKey, p.issuer, p.audience, -time.Minute, -time.Minute)
	token, _, _, err := expired.IssueAccess("s", "u", "o", "rep")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(token); err == nil {
		t.Fatal("ValidateAccess should reject expired token")
	}
}
