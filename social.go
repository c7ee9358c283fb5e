package tracker

import (
	"context"

	"github.com/goliatone/go-tracker/social/google"
)

// googleVerifier adapts the Google ID token verifier to the SocialVerifier
// interface the auth controller consumes
type googleVerifier struct {
	verifier *google.Verifier
}

// NewGoogleVerifier wraps a Google verifier as a SocialVerifier
func NewGoogleVerifier(verifier *google.Verifier) SocialVerifier {
	return &googleVerifier{verifier: verifier}
}

func (g *googleVerifier) VerifyIDToken(ctx context.Context, raw string) (*SocialAccount, error) {
	profile, err := g.verifier.VerifyIDToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	return &SocialAccount{
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		GivenName:     profile.GivenName,
		FamilyName:    profile.FamilyName,
		Picture:       profile.Picture,
	}, nil
}
