package auth

import "testing"

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter2" {
		t.Fatalf("Hash must not equal the plaintext")
	}

	if !Verify("hunter2", hash) {
		t.Errorf("Verify must accept the correct password")
	}
	if Verify("wrong", hash) {
		t.Errorf("Verify must reject a wrong password")
	}
	if Verify("hunter2", "not-a-hash") {
		t.Errorf("Verify must reject a malformed hash")
	}
}
