package rpc

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// AuthConfig gates mutating calls. A JWT secret takes precedence over the
// static token; with neither set every caller is admitted.
type AuthConfig struct {
	Token     string
	JWTSecret []byte
	Issuer    string
	ClockSkew time.Duration
}

type authenticator struct {
	cfg AuthConfig
}

func (a authenticator) enabled() bool {
	return a.cfg.Token != "" || len(a.cfg.JWTSecret) > 0
}

func (a authenticator) check(r *http.Request) *RPCError {
	if !a.enabled() {
		return nil
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	presented := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if len(a.cfg.JWTSecret) > 0 {
		if err := a.parseToken(presented); err != nil {
			return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials", Data: err.Error()}
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(a.cfg.Token)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func (a authenticator) parseToken(raw string) error {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(a.cfg.ClockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.cfg.Issuer))
	}
	token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return a.cfg.JWTSecret, nil
	}, opts...)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("token invalid")
	}
	return nil
}
