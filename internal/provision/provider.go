package provision

import "context"

// Application is a TwiML application registered with the provider.
type Application struct {
	SID          string
	FriendlyName string
	VoiceURL     string
	SMSURL       string
}

// PhoneNumber is an incoming phone number owned by the account.
type PhoneNumber struct {
	SID                 string
	Number              string
	FriendlyName        string
	VoiceApplicationSID string
	SMSApplicationSID   string
}

// ApplicationParams carries the mutable fields of an Application.
type ApplicationParams struct {
	FriendlyName string
	VoiceURL     string
	SMSURL       string
}

// PhoneNumberParams carries the mutable fields of a PhoneNumber.
type PhoneNumberParams struct {
	VoiceApplicationSID string
	SMSApplicationSID   string
}

// Provider is the subset of the telephony REST API the workflow needs.
// FindPhoneNumber returns ErrNotFound when the account owns no matching number.
type Provider interface {
	CreateApplication(ctx context.Context, params ApplicationParams) (*Application, error)
	UpdateApplication(ctx context.Context, sid string, params ApplicationParams) (*Application, error)
	FindPhoneNumber(ctx context.Context, number string) (*PhoneNumber, error)
	PurchasePhoneNumber(ctx context.Context, areaCode string) (*PhoneNumber, error)
	UpdatePhoneNumber(ctx context.Context, sid string, params PhoneNumberParams) (*PhoneNumber, error)
}

// ProviderFactory builds a Provider once credentials are known.
type ProviderFactory func(accountSID, authToken string) Provider
