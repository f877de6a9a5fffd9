// Package auth verifies Clerk session tokens and reads user profiles from Clerk.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwks"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"

	"shopapi/internal/http/middleware"
	"shopapi/internal/service"
)

// Clerk implements middleware.TokenVerifier and the identity lookup used on user sync.
type Clerk struct {
	jwks  *jwks.Client
	users *user.Client

	mu   sync.RWMutex
	keys map[string]*clerk.JSONWebKey
}

func NewClerk(secretKey string) *Clerk {
	cfg := &clerk.ClientConfig{}
	cfg.Key = clerk.String(secretKey)
	return &Clerk{
		jwks:  jwks.NewClient(cfg),
		users: user.NewClient(cfg),
		keys:  make(map[string]*clerk.JSONWebKey),
	}
}

func (a *Clerk) Verify(ctx context.Context, token string) (*middleware.Claims, error) {
	unsafe, err := jwt.Decode(ctx, &jwt.DecodeParams{Token: token})
	if err != nil {
		return nil, fmt.Errorf("decode session token: %w", err)
	}
	jwk, err := a.key(ctx, unsafe.KeyID)
	if err != nil {
		return nil, err
	}
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token, JWK: jwk})
	if err != nil {
		return nil, fmt.Errorf("verify session token: %w", err)
	}
	return &middleware.Claims{Subject: claims.Subject, OrgRole: claims.ActiveOrganizationRole}, nil
}

// key returns the signing key for kid, fetching the JWKS once per unknown kid.
func (a *Clerk) key(ctx context.Context, kid string) (*clerk.JSONWebKey, error) {
	a.mu.RLock()
	k, ok := a.keys[kid]
	a.mu.RUnlock()
	if ok {
		return k, nil
	}

	k, err := jwt.GetJSONWebKey(ctx, &jwt.GetJSONWebKeyParams{KeyID: kid, JWKSClient: a.jwks})
	if err != nil {
		return nil, fmt.Errorf("fetch signing key %q: %w", kid, err)
	}
	a.mu.Lock()
	a.keys[kid] = k
	a.mu.Unlock()
	return k, nil
}

// Identity loads the profile of userID from Clerk.
func (a *Clerk) Identity(ctx context.Context, userID string) (service.Identity, error) {
	u, err := a.users.Get(ctx, userID)
	if err != nil {
		return service.Identity{}, fmt.Errorf("get clerk user: %w", err)
	}
	return IdentityFromUser(u), nil
}

// IdentityFromUser picks the primary email and phone of a Clerk user.
func IdentityFromUser(u *clerk.User) service.Identity {
	id := service.Identity{UserID: u.ID}
	if u.FirstName != nil {
		id.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		id.LastName = *u.LastName
	}
	for _, e := range u.EmailAddresses {
		if e == nil {
			continue
		}
		if id.Email == "" || (u.PrimaryEmailAddressID != nil && e.ID == *u.PrimaryEmailAddressID) {
			id.Email = e.EmailAddress
		}
	}
	for _, p := range u.PhoneNumbers {
		if p == nil {
			continue
		}
		if id.Phone == "" || (u.PrimaryPhoneNumberID != nil && p.ID == *u.PrimaryPhoneNumberID) {
			id.Phone = p.PhoneNumber
		}
	}
	return id
}
