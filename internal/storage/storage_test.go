package storage

import (
	"context"
	"testing"
	"time"

	"giftgroup-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func member(phone, group, name string, prefs ...string) models.Member {
	return models.Member{
		Phone: phone,
		Record: models.UserRecord{
			GroupCode:   group,
			Name:        name,
			Avatar:      "avatar",
			Preferences: prefs,
		},
	}
}

func TestStorage_AddAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	s.now = func() time.Time { return time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC) }

	saved, err := s.AddMember(ctx, member("972500000001", "WXYZ", "Ada", "birthday:Socks:"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.True(t, saved.JoinedAt.Equal(s.now()))

	got, err := s.GetMember(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Record.Name)
	assert.Equal(t, []string{"birthday:Socks:"}, got.Record.Preferences)
	assert.False(t, got.Record.AmazonConnected)

	_, err = s.GetMember(ctx, "missing")
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestStorage_AddUpdatesSameGroup(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	first, err := s.AddMember(ctx, member("1", "WXYZ", "Ada"))
	require.NoError(t, err)

	m := member("1", "WXYZ", "Ada L.", "christmas:Scarf:2026-12-25")
	m.Record.AmazonConnected = true
	second, err := s.AddMember(ctx, m)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ada L.", second.Record.Name)
	assert.True(t, second.Record.AmazonConnected)
	assert.Equal(t, []string{"christmas:Scarf:2026-12-25"}, second.Record.Preferences)

	all, err := s.GetAllMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStorage_GetMembersByGroup(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for _, m := range []models.Member{
		member("1", "WXYZ", "Ada"),
		member("2", "ABCD", "Grace"),
		member("3", "WXYZ", "Linus"),
		member("1", "ABCD", "Ada"),
	} {
		_, err := s.AddMember(ctx, m)
		require.NoError(t, err)
	}

	wxyz, err := s.GetMembersByGroup(ctx, "WXYZ")
	require.NoError(t, err)
	require.Len(t, wxyz, 2)
	assert.Equal(t, "Ada", wxyz[0].Record.Name)
	assert.Equal(t, "Linus", wxyz[1].Record.Name)

	none, err := s.GetMembersByGroup(ctx, "ZZZZ")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := s.GetAllMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStorage_Isolated(t *testing.T) {
	ctx := context.Background()
	a := newTestStorage(t)
	b := newTestStorage(t)

	_, err := a.AddMember(ctx, member("1", "WXYZ", "Ada"))
	require.NoError(t, err)

	all, err := b.GetAllMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
