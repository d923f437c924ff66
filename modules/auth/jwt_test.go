package auth

import (
	"testing"
	"time"
)

func TestJWTManager_GenerateAndValidateAccessToken(t *testing.T) {
	config := JWTConfig{
		SecretKey:            "test-secret-key",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "test-issuer",
	}
	manager := NewJWTManager(config)

	userID := "user-123"
	email := "test@example.com"

	token, err := manager.GenerateAccessToken(userID, email, RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Error("GenerateAccessToken() returned empty token")
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, userID)
	}
	if claims.Email != email {
		t.Errorf("claims.Email = %v, want %v", claims.Email, email)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("claims.Role = %v, want %v", claims.Role, RoleAdmin)
	}
	if claims.TokenType != "access" {
		t.Errorf("claims.TokenType = %v, want %v", claims.TokenType, "access")
	}
	if claims.Issuer != config.Issuer {
		t.Errorf("claims.Issuer = %v, want %v", claims.Issuer, config.Issuer)
	}
}

func TestJWTManager_GenerateAndValidateRefreshToken(t *testing.T) {
	manager := NewJWTManager(DefaultJWTConfig())

	token, err := manager.GenerateRefreshToken("user-456", "refresh@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	claims, err := manager.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("ValidateRefreshToken() error = %v", err)
	}
	if claims.UserID != "user-456" {
		t.Errorf("claims.UserID = %v, want user-456", claims.UserID)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("claims.TokenType = %v, want refresh", claims.TokenType)
	}
}

func TestJWTManager_AccessTokenCannotBeUsedAsRefresh(t *testing.T) {
	manager := NewJWTManager(DefaultJWTConfig())

	accessToken, err := manager.GenerateAccessToken("user-123", "test@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := manager.ValidateRefreshToken(accessToken); err != ErrInvalidToken {
		t.Errorf("ValidateRefreshToken(access token) error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_RefreshTokenCannotBeUsedAsAccess(t *testing.T) {
	manager := NewJWTManager(DefaultJWTConfig())

	refreshToken, err := manager.GenerateRefreshToken("user-123", "test@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if _, err := manager.ValidateAccessToken(refreshToken); err != ErrInvalidToken {
		t.Errorf("ValidateAccessToken(refresh token) error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	config := DefaultJWTConfig()
	config.AccessTokenDuration = -time.Minute
	manager := NewJWTManager(config)

	token, err := manager.GenerateAccessToken("user-123", "test@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := manager.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("ValidateToken(expired) error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTManager_RejectsTamperedToken(t *testing.T) {
	manager := NewJWTManager(DefaultJWTConfig())

	token, err := manager.GenerateAccessToken("user-123", "test@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	other := NewJWTManager(JWTConfig{
		SecretKey:            "a-different-secret",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: time.Hour,
		Issuer:               "other",
	})
	if _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("ValidateToken(wrong secret) error = %v, want ErrInvalidToken", err)
	}

	if _, err := manager.ValidateToken(token + "x"); err != ErrInvalidToken {
		t.Errorf("ValidateToken(tampered) error = %v, want ErrInvalidToken", err)
	}
}
