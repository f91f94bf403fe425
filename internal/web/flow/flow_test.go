package flow_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/quill/internal/web/flow"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/stretchr/testify/require"
)

var errBadOTP = &blogsdk.APIError{StatusCode: http.StatusBadRequest, Detail: "Invalid OTP"}

// fakeAuth accepts a@b.com/secret1 and OTP 123456 everywhere.
type fakeAuth struct {
	calls []string
	reset blogsdk.PasswordResetRequest
}

func (f *fakeAuth) Login(_ context.Context, req blogsdk.LoginRequest) (*blogsdk.LoginChallenge, error) {
	f.calls = append(f.calls, "login")
	if req.Email != "a@b.com" || req.Password != "secret1" {
		return nil, &blogsdk.APIError{StatusCode: http.StatusBadRequest, Detail: "Invalid credentials"}
	}
	return &blogsdk.LoginChallenge{UserID: "7"}, nil
}

func (f *fakeAuth) VerifyLoginOTP(_ context.Context, userID blogsdk.UserID, otp string) (*blogsdk.TokenPair, error) {
	f.calls = append(f.calls, "login-otp:"+userID.String())
	if otp != "123456" {
		return nil, errBadOTP
	}
	return &blogsdk.TokenPair{Access: "a", Refresh: "r"}, nil
}

func (f *fakeAuth) Register(context.Context, blogsdk.RegisterRequest) error {
	f.calls = append(f.calls, "register")
	return nil
}

func (f *fakeAuth) VerifyEmail(_ context.Context, email, code string) error {
	f.calls = append(f.calls, "verify-email:"+email)
	if code != "123456" {
		return errBadOTP
	}
	return nil
}

func (f *fakeAuth) RequestPasswordResetOTP(_ context.Context, email string) error {
	f.calls = append(f.calls, "reset-request:"+email)
	return nil
}

func (f *fakeAuth) VerifyPasswordResetOTP(_ context.Context, _, otp string) error {
	f.calls = append(f.calls, "reset-verify")
	if otp != "123456" {
		return errBadOTP
	}
	return nil
}

func (f *fakeAuth) ResetPassword(_ context.Context, req blogsdk.PasswordResetRequest) error {
	f.calls = append(f.calls, "reset")
	f.reset = req
	return nil
}

func newFlows() *flow.Flows {
	return flow.New(flow.NewChallengeCache(0))
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFlows()
	api := &fakeAuth{}

	require.ErrorIs(t, f.VerifyLogin(ctx, api, "s", "123456"), flow.ErrNoChallenge)

	_, err := f.StartLogin(ctx, api, "s", blogsdk.LoginRequest{Email: "a@b.com", Password: "nope"})
	require.Error(t, err)
	_, ok := f.Pending("s", flow.KindLogin)
	require.False(t, ok, "failed credentials arm nothing")

	ch, err := f.StartLogin(ctx, api, "s", blogsdk.LoginRequest{Email: " a@b.com ", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, flow.StepOTP, ch.Step)
	require.Equal(t, blogsdk.UserID("7"), ch.UserID)

	err = f.VerifyLogin(ctx, api, "s", "000000")
	require.ErrorIs(t, err, errBadOTP)
	_, ok = f.Pending("s", flow.KindLogin)
	require.True(t, ok, "wrong code stays on the OTP step")

	require.NoError(t, f.VerifyLogin(ctx, api, "s", "123456"))
	_, ok = f.Pending("s", flow.KindLogin)
	require.False(t, ok)

	require.Equal(t, []string{"login", "login", "login-otp:7", "login-otp:7"}, api.calls)
}

func TestRegistrationFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFlows()
	api := &fakeAuth{}

	_, err := f.StartRegistration(ctx, api, "s", blogsdk.RegisterRequest{Email: "new@b.com"})
	require.NoError(t, err)

	require.Error(t, f.VerifyRegistration(ctx, api, "s", "1"))
	require.NoError(t, f.VerifyRegistration(ctx, api, "s", "123456"))
	require.ErrorIs(t, f.VerifyRegistration(ctx, api, "s", "123456"), flow.ErrNoChallenge)

	require.Equal(t, []string{"register", "verify-email:new@b.com", "verify-email:new@b.com"}, api.calls)
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFlows()
	api := &fakeAuth{}

	_, err := f.StartReset(ctx, api, "s", "a@b.com")
	require.NoError(t, err)

	require.ErrorIs(t, f.CompleteReset(ctx, api, "s", "Pass123!", "Pass123!"), flow.ErrNoChallenge,
		"password step is unreachable before the code is accepted")

	require.Error(t, f.VerifyResetOTP(ctx, api, "s", "000000"))
	ch, _ := f.Pending("s", flow.KindReset)
	require.Equal(t, flow.StepOTP, ch.Step)

	require.NoError(t, f.VerifyResetOTP(ctx, api, "s", "123456"))
	ch, _ = f.Pending("s", flow.KindReset)
	require.Equal(t, flow.StepNewPassword, ch.Step)
	require.Equal(t, "123456", ch.OTP)

	require.NoError(t, f.CompleteReset(ctx, api, "s", "Pass123!", "Pass123!"))
	require.Equal(t, blogsdk.PasswordResetRequest{
		Email: "a@b.com", OTP: "123456", NewPassword: "Pass123!", ConfirmPassword: "Pass123!",
	}, api.reset)

	_, ok := f.Pending("s", flow.KindReset)
	require.False(t, ok)
}

func TestPasswordResetMismatchIsClientSide(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"detail":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	f := newFlows()
	api := blogsdk.NewClient(srv.URL, nil)

	_, err := f.StartReset(ctx, api, "s", "a@b.com")
	require.NoError(t, err)
	require.NoError(t, f.VerifyResetOTP(ctx, api, "s", "123456"))
	require.EqualValues(t, 2, calls.Load())

	err = f.CompleteReset(ctx, api, "s", "Pass123!", "Other123!")
	var vErr *blogsdk.ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, "Passwords do not match", vErr.Fields["confirm_password"])
	require.EqualValues(t, 2, calls.Load(), "no request for a mismatch")

	ch, ok := f.Pending("s", flow.KindReset)
	require.True(t, ok)
	require.Equal(t, flow.StepNewPassword, ch.Step)
}
