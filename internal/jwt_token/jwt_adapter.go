package jwttoken

import (
	authmw "nftmarket/pkg/platform/middleware/auth"
)

// JWTServiceAdapter satisfies authmw.JWTValidator, so the middleware sees the
// caller's account and token id without depending on golang-jwt types.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	out := &authmw.JWTClaims{
		Account: claims.Account(),
		JTI:     claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
