package backend

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password")
	if err != nil {
		t.Fatal(err)
	}
	salt, key, ok := strings.Cut(hash, ":")
	if !ok {
		t.Fatalf("hash %q has no salt separator", hash)
	}
	if len(salt) != saltLen*2 {
		t.Errorf("salt length => %d, want %d", len(salt), saltLen*2)
	}
	if len(key) != pbkdf2KeyLen*2 {
		t.Errorf("key length => %d, want %d", len(key), pbkdf2KeyLen*2)
	}

	other, err := HashPassword("password")
	if err != nil {
		t.Fatal(err)
	}
	if other == hash {
		t.Error("two hashes of the same password share a salt")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("password")
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword("password", hash) {
		t.Fatal("password did not verify")
	}
	if VerifyPassword("Password", hash) {
		t.Fatal("wrong password verified")
	}
	for _, bad := range []string{"", "nosalt", "a:b:c", HashMock, HashGitHubOAuth} {
		if VerifyPassword("password", bad) {
			t.Errorf("VerifyPassword(_, %q) => true, want false", bad)
		}
	}
}

func TestHashPasswordWithSaltIsDeterministic(t *testing.T) {
	a := HashPasswordWithSalt("123456", "seed_salt")
	b := HashPasswordWithSalt("123456", "seed_salt")
	if a != b {
		t.Fatalf("HashPasswordWithSalt not deterministic: %q != %q", a, b)
	}
	if !strings.HasPrefix(a, "seed_salt:") {
		t.Fatalf("HashPasswordWithSalt => %q, want seed_salt prefix", a)
	}
}

func TestIsPlaceholderHash(t *testing.T) {
	for hash, want := range map[string]bool{
		HashTODO:        true,
		HashMock:        true,
		HashGitHubOAuth: false,
		"salt:abc":      false,
	} {
		if got := IsPlaceholderHash(hash); got != want {
			t.Errorf("IsPlaceholderHash(%q) => %v, want %v", hash, got, want)
		}
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(token, tokenPrefix) {
		t.Fatalf("token %q has no %q prefix", token, tokenPrefix)
	}
	if len(token) != len(tokenPrefix)+tokenLen*2 {
		t.Fatalf("token length => %d, want %d", len(token), len(tokenPrefix)+tokenLen*2)
	}
	other, _ := GenerateToken()
	if other == token {
		t.Fatal("GenerateToken returned the same token twice")
	}
}

func TestHashToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	hash := HashToken(token)
	if len(hash) != 64 {
		t.Fatalf("hash length => %d, want 64", len(hash))
	}
	if hash != HashToken(token) {
		t.Fatal("HashToken is not deterministic")
	}
}
