package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{
			name:      "expired session",
			expiresAt: time.Now().Add(-1 * time.Hour),
			expected:  true,
		},
		{
			name:      "valid session",
			expiresAt: time.Now().Add(1 * time.Hour),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &Session{ExpiresAt: tt.expiresAt}
			if session.IsExpired() != tt.expected {
				t.Errorf("expected IsExpired() = %v", tt.expected)
			}
		})
	}
}

func TestAuthContextIsAdmin(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleMember, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := &AuthContext{Role: tt.role}
			if ctx.IsAdmin() != tt.expected {
				t.Errorf("expected IsAdmin() = %v for role %s", tt.expected, tt.role)
			}
		})
	}
}

func TestLoginResponseJSON(t *testing.T) {
	resp := &LoginResponse{
		Token:     "jwt-token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		User: &UserSummary{
			ID:    "user-123",
			Email: "test@example.com",
			Role:  RoleMember,
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"token":"jwt-token"`) {
		t.Errorf("expected token in JSON, got %s", data)
	}
	if !strings.Contains(string(data), `"role":"member"`) {
		t.Errorf("expected role in JSON, got %s", data)
	}
}

func TestUserPasswordHashNotSerialized(t *testing.T) {
	user := &User{ID: "u1", Email: "a@b.c", PasswordHash: "hash-value"}
	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "hash-value") {
		t.Error("password hash must not be serialized")
	}
}
