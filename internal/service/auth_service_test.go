package service

import (
	"context"
	"testing"
	"time"

	"agro-kyc/internal/dto"
	"agro-kyc/internal/kyc"
	"agro-kyc/internal/repository"
	"agro-kyc/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService() (*AuthService, *auth.JWTManager) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(repository.NewMemoryUserRepository(), jwtManager, zap.NewNop()), jwtManager
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, jwtManager := newAuthService()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Username: "maria",
		Email:    "Maria@Fazenda.com.br",
		Password: "colheita2024",
		Role:     "producer",
	})
	require.NoError(t, err)
	assert.Equal(t, "producer", resp.User.Role)
	assert.Equal(t, "incomplete", resp.User.KYCStatus)
	assert.Equal(t, "maria@fazenda.com.br", resp.User.Email)

	claims, err := jwtManager.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "producer", claims.Role)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "maria@fazenda.com.br", Password: "colheita2024"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "maria@fazenda.com.br", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateAndBadRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService()

	req := &dto.RegisterRequest{Username: "ze", Email: "ze@agro.example", Password: "12345678", Role: "driver"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "x", Email: "x@agro.example", Password: "12345678", Role: "auctioneer"})
	assert.ErrorIs(t, err, kyc.ErrUnknownRole)
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{Username: "ana", Email: "ana@agro.example", Password: "12345678", Role: "buyer"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, refreshed.User.ID)

	_, err = svc.RefreshToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "ação", sanitizeText("ação"))
	assert.Equal(t, "ok", sanitizeText("o\xffk"))
}
