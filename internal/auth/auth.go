// Package auth validates the auth provider's encrypted session cookie and
// resolves it to an external identity. It performs no session issuance.
package auth

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwe"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/crypto/hkdf"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
)

// Identity is the authenticated external identity extracted from a session.
type Identity struct {
	Subject string
	Email   string
}

// Authenticator checks session cookies against the shared auth secret. The
// secret is injected at construction; the package never reads process state.
type Authenticator struct {
	secret     []byte
	cookieName string
}

func New(secret, cookieName string) *Authenticator {
	return &Authenticator{secret: []byte(secret), cookieName: cookieName}
}

// encryptionKey derives the session encryption key the auth provider uses,
// HKDF over SHA-256 keyed on the shared secret and salted with the cookie
// name. 32 bytes for A256GCM content encryption.
func (a *Authenticator) encryptionKey() ([]byte, error) {
	if len(a.secret) == 0 {
		return nil, apperrors.New(apperrors.ErrInternalServer, "auth secret not configured")
	}

	info := fmt.Sprintf("Auth.js Generated Encryption Key (%s)", a.cookieName)
	kdf := hkdf.New(sha256.New, a.secret, []byte(a.cookieName), []byte(info))

	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, "failed to derive encryption key", err)
	}

	return key, nil
}

// decryptToJWT converts the encrypted session token into a signed JWT so the
// claims can be validated with the standard parser.
func (a *Authenticator) decryptToJWT(encryptedToken string) (string, error) {
	key, err := a.encryptionKey()
	if err != nil {
		return "", err
	}

	// Decrypt JWE using DIRECT key encryption and A256GCM content encryption
	decrypted, err := jwe.Decrypt([]byte(encryptedToken),
		jwe.WithKey(jwa.DIRECT(), key))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "failed to decrypt session token", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(decrypted, &payload); err != nil {
		return "", apperrors.Wrap(apperrors.ErrUnauthorized, "failed to unmarshal session payload", err)
	}

	token := jwt.New()
	for k, v := range payload {
		token.Set(k, v)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), a.secret))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, "failed to sign JWT", err)
	}

	return string(signed), nil
}

// ValidateRequest resolves the session cookie on the request to an external
// identity. Absence or invalidity of the cookie is a terminal authorization
// failure for the caller.
func (a *Authenticator) ValidateRequest(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(a.cookieName)
	if err != nil {
		return Identity{}, apperrors.New(apperrors.ErrUnauthorized, "missing session token cookie")
	}

	jwtString, err := a.decryptToJWT(cookie.Value)
	if err != nil {
		return Identity{}, err
	}

	token, err := jwt.Parse([]byte(jwtString),
		jwt.WithKey(jwa.HS256(), a.secret),
		jwt.WithValidate(true))
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.ErrUnauthorized, "failed to validate session token", err)
	}

	// Check expiration
	if exp, ok := token.Expiration(); ok && exp.Before(time.Now()) {
		return Identity{}, apperrors.New(apperrors.ErrUnauthorized, "session token expired")
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return Identity{}, apperrors.New(apperrors.ErrUnauthorized, "session token has no subject")
	}

	var email string
	if err := token.Get("email", &email); err != nil {
		return Identity{}, apperrors.New(apperrors.ErrUnauthorized, "session token has no email claim")
	}

	return Identity{Subject: subject, Email: email}, nil
}
