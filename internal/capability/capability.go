// Package capability issues Twilio Client capability tokens for the browser
// calling page.
package capability

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long a token stays valid when no TTL is given.
const DefaultTTL = time.Hour

// Capability accumulates scopes for one token.
type Capability struct {
	accountSID string
	authToken  string
	scopes     []string
	now        func() time.Time
}

// New creates a Capability signed with the account credentials.
func New(accountSID, authToken string) *Capability {
	return &Capability{
		accountSID: accountSID,
		authToken:  authToken,
		now:        time.Now,
	}
}

// AllowClientOutgoing lets the client place calls handled by the TwiML
// application appSID. clientName, when set, is passed to the application.
func (c *Capability) AllowClientOutgoing(appSID, clientName string) {
	params := url.Values{"appSid": {appSID}}
	if clientName != "" {
		params.Set("clientName", clientName)
	}
	c.scopes = append(c.scopes, "scope:client:outgoing?"+params.Encode())
}

// AllowClientIncoming lets the client receive calls addressed to clientName.
func (c *Capability) AllowClientIncoming(clientName string) {
	params := url.Values{"clientName": {clientName}}
	c.scopes = append(c.scopes, "scope:client:incoming?"+params.Encode())
}

// Token signs the accumulated scopes into a JWT valid for ttl.
func (c *Capability) Token(ttl time.Duration) (string, error) {
	if c.accountSID == "" || c.authToken == "" {
		return "", errors.New("capability: account sid and auth token are required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claims := jwt.MapClaims{
		"iss":   c.accountSID,
		"exp":   c.now().Add(ttl).Unix(),
		"scope": strings.Join(c.scopes, " "),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.authToken))
}
