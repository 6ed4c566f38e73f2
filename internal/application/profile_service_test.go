package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/pkg/apperr"
)

type fakeAvatars struct {
	body string
	err  error
}

func (f *fakeAvatars) Upload(_ context.Context, userID, filename, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(r)
	f.body = string(b)
	return "https://storage.googleapis.com/bucket/avatars/" + userID + "/" + filename, nil
}

func TestProfileService_GetMe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.publish(t, "A", entity.AgreementServices, true, nil)
	u := h.verifiedUser(t, "test@example.com", "test123")

	me, err := h.profiles.GetMe(ctx, u)
	require.NoError(t, err)
	assert.Nil(t, me.Profile)
	assert.False(t, me.IsOnboarded())
	assert.Len(t, me.PendingAgreements, 1)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.verifiedUser(t, "test@example.com", "test123")
	other := h.verifiedUser(t, "other@example.com", "test123")

	_, err := h.profiles.UpdateProfile(ctx, u.ID, UpdateProfileInput{Nickname: "a"})
	assert.Equal(t, map[string]string{"nickname": "E0060001"}, fieldsOf(t, err))

	p, err := h.profiles.UpdateProfile(ctx, u.ID, UpdateProfileInput{Nickname: "길동 홍"})
	require.NoError(t, err)
	assert.Equal(t, "길동 홍", p.Nickname)

	// setting the same nickname again is not a conflict
	_, err = h.profiles.UpdateProfile(ctx, u.ID, UpdateProfileInput{Nickname: "길동 홍"})
	require.NoError(t, err)

	_, err = h.profiles.UpdateProfile(ctx, other.ID, UpdateProfileInput{Nickname: "길동 홍"})
	assert.ErrorIs(t, err, apperr.NicknameInUse)

	me, err := h.profiles.GetMe(ctx, u)
	require.NoError(t, err)
	require.NotNil(t, me.Profile)
	assert.True(t, me.IsOnboarded())
}

func TestProfileService_UploadAvatar(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.verifiedUser(t, "test@example.com", "test123")

	_, err := h.profiles.UploadAvatar(ctx, u.ID, strings.NewReader("x"), "a.txt", "text/plain")
	assert.ErrorIs(t, err, apperr.InvalidAvatar)

	avatars := &fakeAvatars{}
	h.profiles.Avatars = avatars
	url, err := h.profiles.UploadAvatar(ctx, u.ID, strings.NewReader("png-bytes"), "me.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", avatars.body)

	p, err := h.store.Profiles().GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, url, p.AvatarURL)
	assert.True(t, strings.HasPrefix(p.Nickname, "user_"))

	avatars.err = errors.New("bucket missing")
	_, err = h.profiles.UploadAvatar(ctx, u.ID, strings.NewReader("png"), "me.png", "image/png")
	require.Error(t, err)
	_, ok := apperr.From(err)
	assert.False(t, ok)
}
