// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bureau-foundation/fieldreport/lib/credential"
	"github.com/bureau-foundation/fieldreport/lib/netutil"
)

// UserEmail returns the account email. The id token's email claim is
// used when present; the token came straight from the token endpoint
// over TLS, so its signature is not re-verified. Otherwise the
// userinfo endpoint is queried with the access token.
func (provider *OAuthProvider) UserEmail(ctx context.Context, current credential.Credential) (string, error) {
	if current.IDToken != "" {
		email, err := emailFromIDToken(current.IDToken)
		if err == nil && email != "" {
			return email, nil
		}
		provider.logger.Debug("id token has no usable email claim", "error", err)
	}
	if provider.config.UserInfoURL == "" {
		return "", errors.New("no id token email and no userinfo endpoint configured")
	}
	return provider.userInfoEmail(ctx, current)
}

func emailFromIDToken(idToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", fmt.Errorf("parsing id token: %w", err)
	}
	email, _ := claims["email"].(string)
	if verified, present := claims["email_verified"].(bool); present && !verified {
		return "", errors.New("id token email is not verified")
	}
	return strings.TrimSpace(email), nil
}

func (provider *OAuthProvider) userInfoEmail(ctx context.Context, current credential.Credential) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.config.UserInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("building userinfo request: %w", err)
	}
	tokenType := current.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	request.Header.Set("Authorization", tokenType+" "+current.AccessToken)
	request.Header.Set("Accept", "application/json")

	response, err := provider.config.HTTPClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("querying userinfo: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo returned %s: %s", response.Status, netutil.ErrorBody(response.Body))
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := netutil.DecodeJSON(response.Body, &info); err != nil {
		return "", fmt.Errorf("decoding userinfo: %w", err)
	}
	return strings.TrimSpace(info.Email), nil
}
