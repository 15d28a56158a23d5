package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"emergency-response/internal/models"
)

// CredentialVerifier decides whether a username/password pair identifies a
// principal. Swapping the implementation is how a real identity provider
// would be plugged in.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// StaticVerifier accepts exactly one configured credential pair. The
// password is kept only as a bcrypt hash.
type StaticVerifier struct {
	username     string
	passwordHash []byte
}

func NewStaticVerifier(username, password string) (*StaticVerifier, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &StaticVerifier{username: username, passwordHash: hash}, nil
}

func (v *StaticVerifier) Verify(ctx context.Context, username, password string) (bool, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password)) == nil
	return userOK && passOK, nil
}

const invalidCredentialsMessage = "Invalid username or password."

type AuthService struct {
	verifier CredentialVerifier
}

func NewAuthService(verifier CredentialVerifier) *AuthService {
	return &AuthService{verifier: verifier}
}

// Login checks the submitted credentials and returns the username the
// session should be opened for.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)

	ok, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &UnauthorizedError{Message: invalidCredentialsMessage}
	}
	return username, nil
}
