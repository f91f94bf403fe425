/*
Package blogsdk is a client for the blog REST API.

# Overview

A Client wraps every request with the API base URL, JSON content negotiation
and, when the session holds one, a bearer access token. Sessions are not global:
the caller injects a TokenStore at construction and the Client reads it before
each request.

	store := blogsdk.NewMemoryTokenStore(blogsdk.Tokens{})
	client := blogsdk.NewClient("https://blog.example.com/api", store)

	posts, err := client.ListPosts(ctx)

# Token refresh

When a request carrying an access token is rejected with 401, the Client
exchanges the refresh token for a new access token (POST auth/token/refresh/),
saves it through TokenStore.Save and resends the original request once. The
caller only sees the resent request's response.

If the refresh fails the Client clears the TokenStore, calls OnSessionExpired
and returns an error that matches both ErrSessionExpired and the original
*APIError:

	_, err := client.ListUserPosts(ctx)
	if errors.Is(err, blogsdk.ErrSessionExpired) {
		// send the user to the login page
	}

A 401 on the resent request is returned as is; there is never a second
refresh for the same request.

# OTP-gated flows

Login, registration and password reset each take two or three calls:

	challenge, err := client.Login(ctx, blogsdk.LoginRequest{Email: email, Password: pw})
	pair, err := client.VerifyLoginOTP(ctx, challenge.UserID, otp) // stores the tokens

	err = client.Register(ctx, req)
	err = client.VerifyEmail(ctx, req.Email, code)

	err = client.RequestPasswordResetOTP(ctx, email)
	err = client.VerifyPasswordResetOTP(ctx, email, otp)
	err = client.ResetPassword(ctx, blogsdk.PasswordResetRequest{...})

Inputs are validated before anything is sent; failures come back as a
*ValidationError carrying field messages.

# Errors

Non-2xx responses become *APIError with the server's general message in Detail
and per-field messages in FieldErrors. List endpoints never fail on a missing
or malformed "results" array; they return an empty slice.
*/
package blogsdk
