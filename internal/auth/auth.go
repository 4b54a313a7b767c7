// Package auth verifies that webhook requests were signed by Twilio.
package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/twilio/twilio-go/client"
)

// SignatureHeader carries the request signature computed by Twilio.
const SignatureHeader = "X-Twilio-Signature"

// EventKind classifies a signed webhook request.
type EventKind string

const (
	EventVoice EventKind = "voice"
	EventSMS   EventKind = "sms"
)

var (
	ErrMissingSignature = errors.New("missing " + SignatureHeader + " header")
	ErrUnknownEvent     = errors.New("request is neither a voice nor an sms event")
	ErrInvalidSignature = errors.New("signature does not match request")
)

// Validator checks webhook signatures against the account auth token.
type Validator struct {
	rv        client.RequestValidator
	publicURL *url.URL
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithPublicURL sets the externally visible base URL used when rebuilding the
// callback URL, for deployments behind a proxy that rewrites Host.
func WithPublicURL(base string) ValidatorOption {
	return func(v *Validator) {
		if base == "" {
			return
		}
		if u, err := url.Parse(base); err == nil {
			v.publicURL = u
		}
	}
}

// NewValidator creates a Validator for the given auth token.
func NewValidator(authToken string, opts ...ValidatorOption) *Validator {
	v := &Validator{rv: client.NewRequestValidator(authToken)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate classifies r and verifies its signature. The returned kind is set
// whenever classification succeeded, even if the signature is invalid.
func (v *Validator) Validate(r *http.Request) (EventKind, error) {
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		return "", ErrMissingSignature
	}

	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("parse form: %w", err)
	}

	kind, ok := Classify(r.PostForm)
	if !ok {
		return "", ErrUnknownEvent
	}

	callback := v.CallbackURL(r)
	if kind == EventVoice {
		callback = stripSecurePort(callback)
	}

	if !v.rv.Validate(callback, flatten(r.PostForm), signature) {
		return kind, ErrInvalidSignature
	}
	return kind, nil
}

// Classify decides whether form values describe a voice or an sms event.
func Classify(form url.Values) (EventKind, bool) {
	switch {
	case form.Get("CallSid") != "":
		return EventVoice, true
	case form.Get("MessageSid") != "", form.Get("SmsSid") != "":
		return EventSMS, true
	}
	return "", false
}

// CallbackURL rebuilds the absolute URL Twilio requested.
func (v *Validator) CallbackURL(r *http.Request) string {
	if v.publicURL != nil {
		return strings.TrimRight(v.publicURL.String(), "/") + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// ComputeSignature returns the signature Twilio sends for a request to rawURL
// with the given POST parameters.
func ComputeSignature(authToken, rawURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(rawURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// stripSecurePort removes an explicit port from an https URL; Twilio signs
// secure voice callbacks without it.
func stripSecurePort(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Port() == "" {
		return raw
	}
	u.Host = u.Hostname()
	return u.String()
}

func flatten(form url.Values) map[string]string {
	params := make(map[string]string, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}
	return params
}
