package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub: "user-1",
		JTI: "jti-1",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := ParseToken(secret, issued)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Sub != "user-1" || claims.JTI != "jti-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	secret := []byte("secret")
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	valid, err := IssueToken(secret, Claims{Sub: "user-1", JTI: "jti-1", Exp: now.Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	expired, _ := IssueToken(secret, Claims{Sub: "user-1", JTI: "jti-1", Exp: now.Add(-time.Minute).Unix()})
	foreign, _ := IssueToken([]byte("other"), Claims{Sub: "user-1", JTI: "jti-1", Exp: now.Add(time.Hour).Unix()})
	noSubject, _ := IssueToken(secret, Claims{JTI: "jti-1", Exp: now.Add(time.Hour).Unix()})
	noID, _ := IssueToken(secret, Claims{Sub: "user-1", Exp: now.Add(time.Hour).Unix()})
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-1",
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(secret)
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	signed := valid[:strings.LastIndex(valid, ".")]
	header, _, _ := strings.Cut(valid, ".")

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "expired", token: expired, want: ErrExpiredToken},
		{name: "wrong secret", token: foreign, want: ErrInvalidToken},
		{name: "tampered signature", token: signed + ".AAAA", want: ErrInvalidToken},
		{name: "missing subject", token: noSubject, want: ErrInvalidToken},
		{name: "missing id", token: noID, want: ErrInvalidToken},
		{name: "other algorithm", token: hs512, want: ErrInvalidToken},
		{name: "unsigned", token: unsigned, want: ErrInvalidToken},
		{name: "no separator", token: header, want: ErrInvalidToken},
		{name: "extra segment", token: valid + ".x", want: ErrInvalidToken},
		{name: "empty", token: "", want: ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTokenAt(secret, tc.token, now); !errors.Is(err, tc.want) {
				t.Fatalf("ParseTokenAt() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc.def", want: "abc.def", ok: true},
		{header: "bearer abc", want: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := BearerToken(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
