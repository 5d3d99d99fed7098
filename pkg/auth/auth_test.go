package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() JWTConfig {
	return JWTConfig{SecretKey: "secret", Issuer: "graphdiff", Audience: "graphdiff-api"}
}

func TestJWTValidator_RoundTrip(t *testing.T) {
	// Arrange
	cfg := testConfig()
	validator, err := NewJWTValidator(cfg)
	require.NoError(t, err)
	token, err := IssueToken(cfg, "user-1", []string{"analyst"}, time.Hour)
	require.NoError(t, err)

	// Act
	claims, err := validator.ValidateToken("Bearer " + token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, []string{"analyst"}, claims.Roles)
}

func TestJWTValidator_Rejections(t *testing.T) {
	cfg := testConfig()
	validator, err := NewJWTValidator(cfg)
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := validator.ValidateToken("  ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := IssueToken(cfg, "user-1", nil, -time.Minute)
		require.NoError(t, err)
		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := cfg
		other.SecretKey = "other"
		token, err := IssueToken(other, "user-1", nil, time.Hour)
		require.NoError(t, err)
		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := cfg
		other.Issuer = "someone-else"
		token, err := IssueToken(other, "user-1", nil, time.Hour)
		require.NoError(t, err)
		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := IssueToken(cfg, "", nil, time.Hour)
		require.NoError(t, err)
		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	_, ok := GetUserFromContext(context.Background())
	assert.False(t, ok)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u"})
	user, ok := GetUserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u", user.UserID)
}

func TestSlidingWindowLimiter(t *testing.T) {
	// Arrange
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	limiter.now = func() time.Time { return clock }

	// Act / Assert
	allowed, _ := limiter.Allow(ctx, "k")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "k")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "k")
	assert.False(t, allowed)

	other, _ := limiter.Allow(ctx, "other")
	assert.True(t, other)

	clock = clock.Add(61 * time.Second)
	allowed, _ = limiter.Allow(ctx, "k")
	assert.True(t, allowed)

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 2, limiter.Prune())

	require.NoError(t, limiter.Reset(ctx, "k"))
}
