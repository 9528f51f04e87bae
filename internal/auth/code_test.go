package auth

import "testing"

func TestNewConfirmationCode_Shape(t *testing.T) {
	code, err := NewConfirmationCode("alice")
	if err != nil {
		t.Fatalf("NewConfirmationCode() error = %v", err)
	}

	// SHA-256 hex digest: 64 lowercase hex characters
	if len(code) != 64 {
		t.Errorf("code length = %d, want 64", len(code))
	}
	for _, c := range code {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("code contains non-hex character %q", c)
		}
	}
}

func TestNewConfirmationCode_Unpredictable(t *testing.T) {
	// Same username, two requests — the random seed must differ.
	a, _ := NewConfirmationCode("alice")
	b, _ := NewConfirmationCode("alice")
	if a == b {
		t.Error("two codes for the same username should not collide")
	}
}

func TestCodesEqual(t *testing.T) {
	code, _ := NewConfirmationCode("bob")
	if !CodesEqual(code, code) {
		t.Error("CodesEqual() should match identical codes")
	}
	if CodesEqual(code, code[:63]+"0") {
		t.Error("CodesEqual() should reject a near-miss")
	}
	if CodesEqual("", code) {
		t.Error("CodesEqual() should reject an empty submission")
	}
}
