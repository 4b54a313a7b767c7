// Package twilio implements provision.Provider on the Twilio REST API.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	twilio "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/tjfontaine/hackpack/internal/provision"
)

// Provider talks to the 2010-04-01 Accounts API.
type Provider struct {
	rest       *twilio.RestClient
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient sets the HTTP client used for REST calls.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// New creates a Provider authenticated with the account credentials.
func New(accountSID, authToken string, opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}

	params := twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	}
	if p.httpClient != nil {
		c := &client.Client{
			Credentials: client.NewCredentials(accountSID, authToken),
			HTTPClient:  p.httpClient,
		}
		c.SetAccountSid(accountSID)
		params.Client = c
	}
	p.rest = twilio.NewRestClientWithParams(params)
	return p
}

var _ provision.Provider = (*Provider)(nil)

func (p *Provider) CreateApplication(ctx context.Context, in provision.ApplicationParams) (*provision.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &openapi.CreateApplicationParams{}
	params.SetFriendlyName(in.FriendlyName)
	params.SetVoiceUrl(in.VoiceURL)
	params.SetVoiceMethod(http.MethodPost)
	params.SetSmsUrl(in.SMSURL)
	params.SetSmsMethod(http.MethodPost)

	resp, err := p.rest.Api.CreateApplication(params)
	if err != nil {
		return nil, wrap(err, "create application")
	}
	return toApplication(resp), nil
}

func (p *Provider) UpdateApplication(ctx context.Context, sid string, in provision.ApplicationParams) (*provision.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &openapi.UpdateApplicationParams{}
	if in.FriendlyName != "" {
		params.SetFriendlyName(in.FriendlyName)
	}
	params.SetVoiceUrl(in.VoiceURL)
	params.SetSmsUrl(in.SMSURL)

	resp, err := p.rest.Api.UpdateApplication(sid, params)
	if err != nil {
		return nil, wrap(err, "update application "+sid)
	}
	return toApplication(resp), nil
}

// FindPhoneNumber returns the first incoming number matching number.
func (p *Provider) FindPhoneNumber(ctx context.Context, number string) (*provision.PhoneNumber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &openapi.ListIncomingPhoneNumberParams{}
	params.SetPhoneNumber(number)
	params.SetLimit(1)

	resp, err := p.rest.Api.ListIncomingPhoneNumber(params)
	if err != nil {
		return nil, wrap(err, "list incoming phone numbers")
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("phone number %s: %w", number, provision.ErrNotFound)
	}
	return toPhoneNumber(&resp[0]), nil
}

func (p *Provider) PurchasePhoneNumber(ctx context.Context, areaCode string) (*provision.PhoneNumber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &openapi.CreateIncomingPhoneNumberParams{}
	params.SetAreaCode(areaCode)

	resp, err := p.rest.Api.CreateIncomingPhoneNumber(params)
	if err != nil {
		return nil, wrap(err, "purchase phone number")
	}
	return toPhoneNumber(resp), nil
}

func (p *Provider) UpdatePhoneNumber(ctx context.Context, sid string, in provision.PhoneNumberParams) (*provision.PhoneNumber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &openapi.UpdateIncomingPhoneNumberParams{}
	params.SetVoiceApplicationSid(in.VoiceApplicationSID)
	params.SetSmsApplicationSid(in.SMSApplicationSID)

	resp, err := p.rest.Api.UpdateIncomingPhoneNumber(sid, params)
	if err != nil {
		return nil, wrap(err, "update phone number "+sid)
	}
	return toPhoneNumber(resp), nil
}

// wrap maps REST 404s to provision.ErrNotFound.
func wrap(err error, op string) error {
	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		if restErr.Status == http.StatusNotFound {
			return fmt.Errorf("%s: %s: %w", op, restErr.Message, provision.ErrNotFound)
		}
		return fmt.Errorf("%s: %d %s: %w", op, restErr.Code, restErr.Message, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toApplication(a *openapi.ApiV2010Application) *provision.Application {
	if a == nil {
		return nil
	}
	return &provision.Application{
		SID:          deref(a.Sid),
		FriendlyName: deref(a.FriendlyName),
		VoiceURL:     deref(a.VoiceUrl),
		SMSURL:       deref(a.SmsUrl),
	}
}

func toPhoneNumber(n *openapi.ApiV2010IncomingPhoneNumber) *provision.PhoneNumber {
	if n == nil {
		return nil
	}
	return &provision.PhoneNumber{
		SID:                 deref(n.Sid),
		Number:              deref(n.PhoneNumber),
		FriendlyName:        deref(n.FriendlyName),
		VoiceApplicationSID: deref(n.VoiceApplicationSid),
		SMSApplicationSID:   deref(n.SmsApplicationSid),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
