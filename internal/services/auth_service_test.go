package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/secure"
)

func newAuthService(database *db.DB, limit int) AuthService {
	stamper := secure.NewStamper("test-stamp-key", 15*time.Minute)
	return NewAuthService(database, stamper, NewRateLimiter(limit, time.Minute), testLogger())
}

// flipHex swaps one hex digit for a different one.
func flipHex(c byte) string {
	if c == 'a' {
		return "b"
	}
	return "a"
}

func registerActive(t *testing.T, svc AuthService, email, username string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), email, username, "correct-horse")
	require.NoError(t, err)
	require.NotNil(t, user.ActivationToken)
	require.NoError(t, svc.Activate(context.Background(), *user.ActivationToken))
	return user
}

func TestRegisterActivateLogin(t *testing.T) {
	database := newTestDB(t)
	svc := newAuthService(database, 5)
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@example.com", "alice", "correct-horse")
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	// Inactive users get the same generic error as bad credentials.
	_, err = svc.Login(ctx, "alice", "correct-horse", "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))

	require.NoError(t, svc.Activate(ctx, *user.ActivationToken))

	result, err := svc.Login(ctx, "alice", "correct-horse", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.UserID)
	assert.NotEmpty(t, result.SessionToken)

	userID, err := svc.Verify(ctx, result.SessionToken, result.Stamp)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestRegisterRejectsShortPasswordAndDuplicates(t *testing.T) {
	database := newTestDB(t)
	svc := newAuthService(database, 5)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@example.com", "alice", "short")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.Register(ctx, "a@example.com", "alice", "correct-horse")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "a@example.com", "someone-else", "correct-horse")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestActivateTokenIsSingleUse(t *testing.T) {
	database := newTestDB(t)
	svc := newAuthService(database, 5)
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@example.com", "alice", "correct-horse")
	require.NoError(t, err)
	token := *user.ActivationToken

	require.NoError(t, svc.Activate(ctx, token))
	err = svc.Activate(ctx, token)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestLoginGenericErrorHidesWhichPartFailed(t *testing.T) {
	database := newTestDB(t)
	svc := newAuthService(database, 10)
	ctx := context.Background()
	registerActive(t, svc, "a@example.com", "alice")

	_, unknownErr := svc.Login(ctx, "nobody", "correct-horse", "10.0.0.1")
	_, wrongPwErr := svc.Login(ctx, "alice", "wrong-password", "10.0.0.1")
	require.Error(t, unknownErr)
	require.Error(t, wrongPwErr)
	assert.Equal(t, apperrors.UserMessage(unknownErr), apperrors.UserMessage(wrongPwErr))
}

func TestLoginRateLimitEscalatesToIPBlock(t *testing.T) {
	database := newTestDB(t)
	svc := newAuthService(database, 2)
	ctx := context.Background()
	registerActive(t, svc, "a@example.com", "alice")

	_, err := svc.Login(ctx, "alice", "wrong", "10.0.0.9")
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
	_, err = svc.Login(ctx, "alice", "wrong", "10.0.0.9")
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))

	// Third attempt trips the limiter and records a block.
	_, err = svc.Login(ctx, "alice", "wrong", "10.0.0.9")
	assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(err))

	var blocks int64
	require.NoError(t, database.Model(&models.IPBlock{}).
		Where("ip = ?", "10.0.0.9").Count(&blocks).Error)
	assert.Equal(t, int64(1), blocks)

	// While the block stands, even correct credentials are refused.
	_, err = svc.Login(ctx, "alice", "correct-horse", "10.0.0.9")
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	// Other IPs are unaffected.
	_, err = svc.Login(ctx, "alice", "correct-horse", "10.0.0.10")
	require.NoError(t, err)
}

func TestLogoutAndVerify(t *testing.T) {
	database := newTestDB(t)
	svc := newAuthService(database, 5)
	ctx := context.Background()
	registerActive(t, svc, "a@example.com", "alice")

	result, err := svc.Login(ctx, "alice", "correct-horse", "10.0.0.1")
	require.NoError(t, err)

	// A tampered stamp never reaches the session table.
	tampered := result.Stamp[:len(result.Stamp)-1] + flipHex(result.Stamp[len(result.Stamp)-1])
	_, err = svc.Verify(ctx, result.SessionToken, tampered)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))

	require.NoError(t, svc.Logout(ctx, result.SessionToken))
	_, err = svc.Verify(ctx, result.SessionToken, result.Stamp)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))

	// Logging out twice is harmless.
	require.NoError(t, svc.Logout(ctx, result.SessionToken))
}
