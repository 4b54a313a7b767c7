package capability

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, token, key string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return []byte(key), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	return claims
}

func TestToken(t *testing.T) {
	c := New("ACxxxxxx", "yyyyyyyyy")
	c.AllowClientOutgoing("APzzzzzzzzz", "hackpack")
	c.AllowClientIncoming("hackpack")

	token, err := c.Token(time.Hour)
	require.NoError(t, err)

	claims := parse(t, token, "yyyyyyyyy")
	assert.Equal(t, "ACxxxxxx", claims["iss"])
	assert.Equal(t,
		"scope:client:outgoing?appSid=APzzzzzzzzz&clientName=hackpack scope:client:incoming?clientName=hackpack",
		claims["scope"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, 5*time.Second)
}

func TestToken_WrongKey(t *testing.T) {
	c := New("ACxxxxxx", "yyyyyyyyy")
	c.AllowClientIncoming("hackpack")

	token, err := c.Token(0)
	require.NoError(t, err)

	_, err = jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte("other"), nil })
	assert.Error(t, err)
}

func TestToken_DefaultTTL(t *testing.T) {
	c := New("ACxxxxxx", "yyyyyyyyy")
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	token, err := c.Token(0)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(DefaultTTL).Unix(), exp.Unix())
}

func TestToken_MissingCredentials(t *testing.T) {
	_, err := New("", "yyyyyyyyy").Token(time.Hour)
	assert.Error(t, err)

	_, err = New("ACxxxxxx", "").Token(time.Hour)
	assert.Error(t, err)
}
