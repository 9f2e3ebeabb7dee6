package auth

import (
	"context"
	"errors"

	supabase "github.com/nedpals/supabase-go"

	"aicruiter/internal/apperr"
)

// Session is an issued access token plus the user it belongs to.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	User         User
}

// OAuthStart is where to send the browser and the PKCE verifier to keep until the callback.
type OAuthStart struct {
	URL          string
	CodeVerifier string
}

// SignInProvider is the hosted auth surface the sign-in routes use.
type SignInProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	StartOAuth(provider, redirectTo string) (*OAuthStart, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*Session, error)
	SignOut(ctx context.Context, token string) error
}

// SupabaseAuth wraps the hosted auth API. It also verifies tokens remotely when
// no JWT secret is configured.
type SupabaseAuth struct {
	client *supabase.Client
}

func NewSupabaseAuth(client *supabase.Client) *SupabaseAuth {
	return &SupabaseAuth{client: client}
}

func (a *SupabaseAuth) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	user, err := a.client.Auth.User(ctx, token)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if user == nil || user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &User{ID: user.ID, Email: user.Email}, nil
}

func (a *SupabaseAuth) SignIn(ctx context.Context, email, password string) (*Session, error) {
	details, err := a.client.Auth.SignIn(ctx, supabase.UserCredentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, apperr.Unauthorized("Invalid email or password", err)
	}
	return toSession(details), nil
}

func (a *SupabaseAuth) StartOAuth(provider, redirectTo string) (*OAuthStart, error) {
	details, err := a.client.Auth.SignInWithProvider(supabase.ProviderSignInOptions{
		Provider:   provider,
		RedirectTo: redirectTo,
		FlowType:   supabase.PKCE,
	})
	if err != nil {
		return nil, apperr.Internal("failed to start sign-in", err)
	}
	return &OAuthStart{URL: details.URL, CodeVerifier: details.CodeVerifier}, nil
}

func (a *SupabaseAuth) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	details, err := a.client.Auth.ExchangeCode(ctx, supabase.ExchangeCodeOpts{
		AuthCode:     code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return nil, apperr.Unauthorized("Authentication failed", err)
	}
	return toSession(details), nil
}

func (a *SupabaseAuth) SignOut(ctx context.Context, token string) error {
	return a.client.Auth.SignOut(ctx, token)
}

func toSession(details *supabase.AuthenticatedDetails) *Session {
	return &Session{
		AccessToken:  details.AccessToken,
		RefreshToken: details.RefreshToken,
		ExpiresIn:    details.ExpiresIn,
		User:         User{ID: details.User.ID, Email: details.User.Email},
	}
}
