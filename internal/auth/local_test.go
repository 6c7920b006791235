package auth

import (
	"context"
	"testing"
	"time"
)

func TestLocalIssueAndVerify(t *testing.T) {
	l := NewLocal([]byte("test-secret"), true)

	pair, err := l.IssueTokens("local_abc", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}

	id, err := l.Verify(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Subject != "local_abc" {
		t.Errorf("subject = %q, want %q", id.Subject, "local_abc")
	}
	if id.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", id.Email, "alice@example.com")
	}
	if id.DisplayName != "Alice" {
		t.Errorf("displayName = %q, want %q", id.DisplayName, "Alice")
	}
}

// TestLocalTokenTypeEnforced verifies a refresh token is not accepted where
// an access token is required, and vice versa.
func TestLocalTokenTypeEnforced(t *testing.T) {
	l := NewLocal([]byte("test-secret"), false)
	pair, err := l.IssueTokens("local_abc", "a@b.c", "A")
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	if _, err := l.Verify(context.Background(), pair.RefreshToken); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := l.VerifyRefresh(pair.AccessToken); err == nil {
		t.Error("access token accepted as refresh token")
	}

	sub, err := l.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if sub != "local_abc" {
		t.Errorf("refresh subject = %q, want %q", sub, "local_abc")
	}
}

func TestLocalRejectsWrongSecret(t *testing.T) {
	a := NewLocal([]byte("secret-a"), false)
	b := NewLocal([]byte("secret-b"), false)

	pair, err := a.IssueTokens("local_abc", "a@b.c", "A")
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	if _, err := b.Verify(context.Background(), pair.AccessToken); err == nil {
		t.Error("token signed with different secret accepted")
	}
}

func TestLocalRejectsExpired(t *testing.T) {
	l := NewLocal([]byte("test-secret"), false)
	l.now = func() time.Time { return time.Now().Add(-time.Hour) }

	pair, err := l.IssueTokens("local_abc", "a@b.c", "A")
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	l.now = time.Now
	if _, err := l.Verify(context.Background(), pair.AccessToken); err == nil {
		t.Error("expired access token accepted")
	}
}

func TestLocalRejectsGarbage(t *testing.T) {
	l := NewLocal([]byte("test-secret"), false)
	for _, token := range []string{"", "not.a.jwt", "a.b.c"} {
		if _, err := l.Verify(context.Background(), token); err == nil {
			t.Errorf("garbage token %q accepted", token)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}
}
