// Package secretary defines admin authentication functionality.

package secretary

// Secretary defines a set of methods for issuing and validating admin
// access tokens.
type Secretary interface {
	Login(password string) (string, error)
	ValidateToken(accessToken string) error
}
