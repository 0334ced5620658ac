package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/openkanban/kanband/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secretKey string = "testJwtKey"
var user domain.User = domain.User{Id: 1, Username: "alice", Email: "alice@example.com"}

func TestDecodeTokenCorrect(t *testing.T) {
	jwt := New(secretKey, 10*time.Second)
	token, err := jwt.NewToken(user)
	require.NoError(t, err)

	decoded, err := jwt.DecodeToken(token)
	require.NoError(t, err)

	claims := decoded.Claims.(jwtlib.MapClaims)
	assert.Equal(t, float64(1), claims["uid"])
	assert.Equal(t, "alice", claims["username"])
}

func TestDecodeTokenExpired(t *testing.T) {
	jwt := New(secretKey, time.Duration(0))
	token, err := jwt.NewToken(user)
	require.NoError(t, err)

	_, err = jwt.DecodeToken(token)
	assert.Error(t, err, "We shouldn't decode expired token")
}

func TestDecodeTokenInvalidSecretKey(t *testing.T) {
	token, err := New(secretKey, 10*time.Second).NewToken(user)
	require.NoError(t, err)

	_, err = New("invalidSecret", 10*time.Second).DecodeToken(token)
	assert.Error(t, err, "We shouldn't decode token with invalid secret")
}
