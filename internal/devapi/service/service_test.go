package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/aussiebroadwan/quill/internal/devapi/domain"
	"github.com/aussiebroadwan/quill/internal/devapi/store"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*AuthService, *store.Memory) {
	t.Helper()

	st := store.NewMemory()
	require.NoError(t, Seed(st, DefaultSeedUsers))

	signer, err := jwtx.NewHS256([]byte("service-test-secret"))
	require.NoError(t, err)

	return &AuthService{
		Store:      st,
		Codes:      NewCodes("123456", time.Minute),
		Signer:     signer,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, st
}

func TestCodes(t *testing.T) {
	t.Parallel()

	t.Run("generated codes validate until forgotten", func(t *testing.T) {
		c := NewCodes("", time.Minute)
		code, err := c.Issue(PurposeLogin, "1")
		require.NoError(t, err)
		require.Len(t, code, 6)

		require.True(t, c.Check(PurposeLogin, "1", code))
		require.False(t, c.Check(PurposeVerifyEmail, "1", code))
		require.False(t, c.Check(PurposeLogin, "2", code))

		c.Forget(PurposeLogin, "1")
		require.False(t, c.Check(PurposeLogin, "1", code))
	})

	t.Run("static code", func(t *testing.T) {
		c := NewCodes("123456", time.Minute)
		_, err := c.Issue(PurposeReset, "a@b.com")
		require.NoError(t, err)

		require.True(t, c.Check(PurposeReset, "a@b.com", "123456"))
		require.False(t, c.Check(PurposeReset, "a@b.com", "000000"))
		require.False(t, c.Check(PurposeReset, "a@b.com", ""))
	})

	t.Run("expired codes are rejected and swept", func(t *testing.T) {
		c := NewCodes("123456", time.Minute)
		issued := time.Now()
		c.now = func() time.Time { return issued }
		_, err := c.Issue(PurposeLogin, "1")
		require.NoError(t, err)

		c.now = func() time.Time { return issued.Add(2 * time.Minute) }
		require.False(t, c.Check(PurposeLogin, "1", "123456"))
		require.Equal(t, 1, c.Sweep())
		require.Equal(t, 0, c.Sweep())
	})
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	auth, _ := newAuth(t)

	_, err := auth.Login(ctx, "a@b.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@b.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	userID, err := auth.Login(ctx, "A@B.com", "secret1")
	require.NoError(t, err)

	_, err = auth.VerifyLogin(ctx, userID, "000000")
	require.ErrorIs(t, err, ErrInvalidCode)

	pair, err := auth.VerifyLogin(ctx, userID, "123456")
	require.NoError(t, err)

	identity, err := jwtx.DecodeIdentity(pair.Access)
	require.NoError(t, err)
	require.Equal(t, "alice", identity.Username)
	require.False(t, identity.IsAdmin)

	// The code is single use.
	_, err = auth.VerifyLogin(ctx, userID, "123456")
	require.ErrorIs(t, err, ErrInvalidCode)

	access, err := auth.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	_, err = auth.Refresh(ctx, pair.Access)
	require.ErrorIs(t, err, ErrInvalidToken)

	auth.Logout(ctx, pair.Refresh)
	_, err = auth.Refresh(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegisterAndVerifyEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	auth, _ := newAuth(t)

	err := auth.Register(ctx, RegisterInput{
		FirstName: "Bob", LastName: "B", Email: "a@b.com", Username: "alice",
		Password: "short", ConfirmPassword: "other",
	})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "user with this email already exists.", fields["email"])
	require.Contains(t, fields, "username")
	require.Contains(t, fields, "password")
	require.Contains(t, fields, "non_field_errors")

	in := RegisterInput{
		FirstName: "Bob", LastName: "B", Email: "bob@b.com", Username: "bob",
		Password: "secret1", ConfirmPassword: "secret1",
	}
	require.NoError(t, auth.Register(ctx, in))

	_, err = auth.Login(ctx, "bob@b.com", "secret1")
	require.ErrorIs(t, err, ErrEmailNotVerified)

	require.ErrorIs(t, auth.VerifyEmail(ctx, "bob@b.com", "999999"), ErrInvalidCode)
	require.NoError(t, auth.VerifyEmail(ctx, "bob@b.com", "123456"))

	_, err = auth.Login(ctx, "bob@b.com", "secret1")
	require.NoError(t, err)
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	auth, _ := newAuth(t)

	require.NoError(t, auth.RequestReset(ctx, "unknown@b.com"))
	require.ErrorIs(t, auth.VerifyReset(ctx, ResetInput{Email: "unknown@b.com", OTP: "123456"}), ErrInvalidCode)

	require.NoError(t, auth.RequestReset(ctx, "a@b.com"))
	require.ErrorIs(t, auth.VerifyReset(ctx, ResetInput{Email: "a@b.com", OTP: "000000"}), ErrInvalidCode)

	// Verify-only leaves the code usable.
	require.NoError(t, auth.VerifyReset(ctx, ResetInput{Email: "a@b.com", OTP: "123456"}))

	err := auth.VerifyReset(ctx, ResetInput{
		Email: "a@b.com", OTP: "123456", NewPassword: "Pass123!", ConfirmPassword: "Other123!",
	})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "confirm_password")

	require.NoError(t, auth.VerifyReset(ctx, ResetInput{
		Email: "a@b.com", OTP: "123456", NewPassword: "Pass123!", ConfirmPassword: "Pass123!",
	}))

	_, err = auth.Login(ctx, "a@b.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "a@b.com", "Pass123!")
	require.NoError(t, err)

	// Consumed.
	require.ErrorIs(t, auth.VerifyReset(ctx, ResetInput{Email: "a@b.com", OTP: "123456"}), ErrInvalidCode)
}

func TestPosts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, st := newAuth(t)
	posts := &PostService{Store: st}

	alice, err := st.UserByEmail("a@b.com")
	require.NoError(t, err)
	admin, err := st.UserByEmail("admin@quill.local")
	require.NoError(t, err)

	public := posts.List(ctx, false)
	all := posts.List(ctx, true)
	require.Len(t, all, len(public)+1)
	for _, p := range public {
		require.True(t, p.Post.IsPublished)
		require.NotNil(t, p.Category)
		require.NotNil(t, p.Author)
	}

	category := posts.Categories(ctx)[0]

	t.Run("create validates", func(t *testing.T) {
		_, err := posts.Create(ctx, alice.ID, domain.PostInput{CategoryID: "nope"}, false)
		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		require.Contains(t, fields, "title")
		require.Contains(t, fields, "content")
	})

	t.Run("user posts are always published and owned", func(t *testing.T) {
		draft := false
		created, err := posts.Create(ctx, alice.ID, domain.PostInput{
			Title: "Mine", Content: "Some content", CategoryID: category.SecureID, IsPublished: &draft,
		}, false)
		require.NoError(t, err)
		require.True(t, created.Post.IsPublished)

		_, err = posts.UserPost(ctx, admin.ID, created.Post.SecureID)
		require.ErrorIs(t, err, ErrForbidden)

		updated, err := posts.UpdateOwned(ctx, alice.ID, created.Post.SecureID, domain.PostInput{
			Title: "Mine, edited", Content: "Some content", CategoryID: category.SecureID,
		})
		require.NoError(t, err)
		require.Equal(t, "Mine, edited", updated.Post.Title)

		require.ErrorIs(t, posts.DeleteOwned(ctx, admin.ID, created.Post.SecureID), ErrForbidden)
		require.NoError(t, posts.DeleteOwned(ctx, alice.ID, created.Post.SecureID))
		_, err = posts.Get(ctx, created.Post.SecureID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("admins control publication", func(t *testing.T) {
		draft := false
		created, err := posts.Create(ctx, admin.ID, domain.PostInput{
			Title: "Draft", Content: "Not yet", CategoryID: strconv.FormatInt(category.ID, 10), IsPublished: &draft,
		}, true)
		require.NoError(t, err)
		require.False(t, created.Post.IsPublished)

		_, err = posts.Get(ctx, created.Post.SecureID)
		require.ErrorIs(t, err, ErrNotFound)

		got, err := posts.AdminGet(ctx, created.Post.ID)
		require.NoError(t, err)
		require.Equal(t, "Draft", got.Post.Title)

		live := true
		_, err = posts.AdminUpdate(ctx, created.Post.ID, domain.PostInput{
			Title: "Draft", Content: "Now live", CategoryID: category.SecureID, IsPublished: &live,
		})
		require.NoError(t, err)

		found := posts.Search(ctx, "NOW LIVE")
		require.Len(t, found, 1)

		require.NoError(t, posts.AdminDelete(ctx, created.Post.ID))
		require.ErrorIs(t, posts.AdminDelete(ctx, created.Post.ID), ErrNotFound)
	})

	t.Run("category listing", func(t *testing.T) {
		for _, p := range posts.ByCategory(ctx, category.SecureID) {
			require.Equal(t, category.ID, p.Post.CategoryID)
		}
		require.Empty(t, posts.ByCategory(ctx, "missing"))
		require.Empty(t, posts.Search(ctx, "   "))
	})
}
