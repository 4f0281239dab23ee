package transfer

import "github.com/golang-jwt/jwt/v5"

// OAuthStateClaims signs the state parameter of a platform OAuth flow so the
// callback can verify the redirect was initiated by this server.
type OAuthStateClaims struct {
	Platform string `json:"platform"`
	jwt.RegisteredClaims
}
