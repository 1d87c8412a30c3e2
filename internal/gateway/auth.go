package gateway

import (
	"context"
	"net/http"
)

// AuthResult is the payload of every authentication endpoint.
type AuthResult struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type authEnvelope struct {
	Data AuthResult `json:"data"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and stores the returned credential.
func (g *Gateway) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	return g.authenticate(ctx, "register", email, password)
}

// Login signs in and stores the returned credential, replacing any previous one.
func (g *Gateway) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return g.authenticate(ctx, "login", email, password)
}

func (g *Gateway) authenticate(ctx context.Context, endpoint, email, password string) (*AuthResult, error) {
	var env authEnvelope
	if err := g.Dispatch(ctx, http.MethodPost, g.AuthPath(endpoint), credentials{Email: email, Password: password}, &env); err != nil {
		return nil, err
	}
	if env.Data.Token == "" {
		return nil, ErrNoCredential
	}
	if err := g.store.Store(ctx, env.Data.Token); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// Me is the identity check for the stored credential. The stored credential
// is left as is.
func (g *Gateway) Me(ctx context.Context) (*AuthResult, error) {
	var env authEnvelope
	if err := g.Dispatch(ctx, http.MethodGet, g.AuthPath("me"), nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}
