package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbellini/userhub/internal/domain/user"
)

const testTTL = 60 * 24 * time.Hour

func testUser() user.User {
	return user.User{
		ID:       42,
		Username: "jake",
		Email:    "jake@jake.jake",
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := NewManager("test-secret", testTTL)

	raw, err := m.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := m.Verify(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "jake", claims.Username)
	assert.Equal(t, "jake@jake.jake", claims.Email)
}

func TestIssueExpiryIsSixtyDaysOut(t *testing.T) {
	issued := time.Now().UTC().Truncate(time.Second)

	m := NewManager("test-secret", testTTL)
	m.now = func() time.Time { return issued }

	raw, err := m.Issue(testUser())
	require.NoError(t, err)

	claims, err := m.Verify(raw)
	require.NoError(t, err)

	wantExp := issued.Add(testTTL).Unix()
	assert.InDelta(t, wantExp, claims.ExpiresAt.Unix(), 1)
}

func TestTokensVaryWithIssuanceTime(t *testing.T) {
	m := NewManager("test-secret", testTTL)

	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	m.now = func() time.Time { return base }
	first, err := m.Issue(testUser())
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(2 * time.Second) }
	second, err := m.Issue(testUser())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	raw, err := NewManager("their-secret", testTTL).Issue(testUser())
	require.NoError(t, err)

	_, err = NewManager("our-secret", testTTL).Verify(raw)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", testTTL)
	m.now = func() time.Time { return time.Now().Add(-61 * 24 * time.Hour) }

	raw, err := m.Issue(testUser())
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.Error(t, err)
}
