package jwtutil

import (
	"testing"
	"time"
)

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken("secret", time.Minute, 42, "an", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != 42 || claims.Username != "an" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	token, _ := GenerateToken("secret", time.Minute, 1, "an", "student")
	if _, err := ParseToken("other", token); err != ErrInvalidToken {
		t.Errorf("wrong secret err = %v", err)
	}

	expired, _ := GenerateToken("secret", -time.Minute, 1, "an", "student")
	if _, err := ParseToken("secret", expired); err != ErrInvalidToken {
		t.Errorf("expired err = %v", err)
	}

	if _, err := ParseToken("secret", "not-a-jwt"); err != ErrInvalidToken {
		t.Errorf("garbage err = %v", err)
	}
}
