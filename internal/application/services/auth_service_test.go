package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/config"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

func newAuthFixture(t *testing.T) (*AuthService, *entities.User) {
	t.Helper()

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &entities.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		IsActive:     true,
		Roles:        []entities.UserRole{entities.UserRoleDeveloper},
	}

	svc := NewAuthService(newFakeUserRepo(user), config.JWTConfig{
		Secret:    "test-secret",
		ExpiresIn: time.Hour,
		Issuer:    "devteam-test",
	}, logger.NewNop())

	return svc, user
}

func TestLogin(t *testing.T) {
	svc, user := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), ports.LoginRequest{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if resp.TokenType != "Bearer" {
		t.Errorf("token type = %s, want Bearer", resp.TokenType)
	}
	if resp.User.PasswordHash != "" {
		t.Error("response leaks the password hash")
	}

	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID.String() {
		t.Errorf("claims user = %s, want %s", claims.UserID, user.ID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != entities.UserRoleDeveloper {
		t.Errorf("claims roles = %v, want [developer]", claims.Roles)
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		inactive bool
	}{
		{name: "unknown username", username: "bob", password: "s3cret"},
		{name: "wrong password", username: "alice", password: "nope"},
		{name: "inactive account", username: "alice", password: "s3cret", inactive: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, user := newAuthFixture(t)
			if tt.inactive {
				user.IsActive = false
			}

			_, err := svc.Login(context.Background(), ports.LoginRequest{Username: tt.username, Password: tt.password})
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, _ := newAuthFixture(t)

	other := NewAuthService(newFakeUserRepo(), config.JWTConfig{
		Secret:    "different-secret",
		ExpiresIn: time.Hour,
		Issuer:    "devteam-test",
	}, logger.NewNop())

	token, err := other.generateAccessToken(&entities.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected validation to reject a token signed with another secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, user := newAuthFixture(t)

	expired := NewAuthService(newFakeUserRepo(), config.JWTConfig{
		Secret:    "test-secret",
		ExpiresIn: -time.Hour,
		Issuer:    "devteam-test",
	}, logger.NewNop())

	token, err := expired.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected validation to reject an expired token")
	}
}
