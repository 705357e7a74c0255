// Package modelclaims provides types for token authorization.

package modelclaims

import "github.com/golang-jwt/jwt"

type AdminClaims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}
