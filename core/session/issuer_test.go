package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_MintVerify(t *testing.T) {
	iss := NewIssuer("secret", 7*24*time.Hour, "edugate")

	token, exp, err := iss.Mint("acc-1", "Student")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, 5*time.Second)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.SubjectID())
	assert.Equal(t, "Student", claims.Role)
	assert.Equal(t, "edugate", claims.Issuer)
}

func TestIssuer_Verify(t *testing.T) {
	iss := NewIssuer("secret", 7*24*time.Hour, "edugate")

	valid, _, err := iss.Mint("acc-1", "admin")
	require.NoError(t, err)

	// mint a week and a day ago
	NowFunc = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	expired, _, err := iss.Mint("acc-1", "admin")
	NowFunc = time.Now // reset
	require.NoError(t, err)

	otherKey, _, err := NewIssuer("other", time.Hour, "edugate").Mint("acc-1", "admin")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acc-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Role:             "admin",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "valid", token: valid},
		{name: "expired", token: expired, wantErr: ErrTokenExpired},
		{name: "wrong key", token: otherKey, wantErr: ErrInvalidToken},
		{name: "tampered", token: valid[:strings.LastIndex(valid, ".")] + ".AAAA", wantErr: ErrInvalidToken},
		{name: "alg none", token: noneAlg, wantErr: ErrInvalidToken},
		{name: "no subject", token: noSubject, wantErr: ErrInvalidToken},
		{name: "garbage", token: "lol", wantErr: ErrInvalidToken},
		{name: "empty", token: "", wantErr: ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Verify(tt.token)
			if err != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
