package services

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
)

const adminTokenTTL = time.Hour

// AdminAuthService exchanges the admin password for a short-lived bearer token.
type AdminAuthService struct {
	jwt          *middleware.JWTAuth
	passwordHash []byte
}

func NewAdminAuthService(jwt *middleware.JWTAuth, passwordHash string) *AdminAuthService {
	return &AdminAuthService{jwt: jwt, passwordHash: []byte(passwordHash)}
}

func (s *AdminAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	if s.jwt == nil || len(s.passwordHash) == 0 {
		return nil, &UnavailableError{Message: "Admin login is not configured"}
	}
	if req.Password == "" {
		return nil, &ValidationError{Message: "Password is required"}
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid credentials"}
	}

	token, err := s.jwt.GenerateAccessToken(middleware.AdminSubject, adminTokenTTL)
	if err != nil {
		return nil, err
	}

	return &models.AuthTokens{
		AccessToken: token,
		ExpiresIn:   int(adminTokenTTL.Seconds()),
	}, nil
}
