package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// CookieName carries the signed authentication token.
const CookieName = "Authentication"

// pendingEmailKey remembers, in the session, the address a login code was sent to.
const pendingEmailKey = "login_email"

// Claims is the payload of the authentication token. The subject is the
// administrator id.
type Claims struct {
	Email    string `json:"email"`
	UserName string `json:"username"`
	jwt.RegisteredClaims
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type emailForm struct {
	Email string `form:"email" validate:"required,email"`
}

type codeForm struct {
	Code string `form:"code" validate:"required,len=5,numeric"`
}
