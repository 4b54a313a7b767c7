package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/hackpack/internal/provision"
)

type stubProvider struct {
	calls   []string
	numbers map[string]provision.PhoneNumber
}

func (s *stubProvider) remember(pn provision.PhoneNumber) *provision.PhoneNumber {
	if s.numbers == nil {
		s.numbers = make(map[string]provision.PhoneNumber)
	}
	s.numbers[pn.SID] = pn
	return &pn
}

func (s *stubProvider) CreateApplication(_ context.Context, params provision.ApplicationParams) (*provision.Application, error) {
	s.calls = append(s.calls, "CreateApplication "+params.VoiceURL)
	return &provision.Application{SID: "APnew", FriendlyName: params.FriendlyName, VoiceURL: params.VoiceURL, SMSURL: params.SMSURL}, nil
}

func (s *stubProvider) UpdateApplication(_ context.Context, sid string, params provision.ApplicationParams) (*provision.Application, error) {
	s.calls = append(s.calls, "UpdateApplication "+sid)
	return &provision.Application{SID: sid, VoiceURL: params.VoiceURL, SMSURL: params.SMSURL}, nil
}

func (s *stubProvider) FindPhoneNumber(_ context.Context, number string) (*provision.PhoneNumber, error) {
	s.calls = append(s.calls, "FindPhoneNumber "+number)
	return s.remember(provision.PhoneNumber{SID: "PNexisting", Number: number}), nil
}

func (s *stubProvider) PurchasePhoneNumber(_ context.Context, areaCode string) (*provision.PhoneNumber, error) {
	s.calls = append(s.calls, "PurchasePhoneNumber "+areaCode)
	return s.remember(provision.PhoneNumber{SID: "PNnew", Number: "+1" + areaCode + "5550100", FriendlyName: "(" + areaCode + ") 555-0100"}), nil
}

func (s *stubProvider) UpdatePhoneNumber(_ context.Context, sid string, params provision.PhoneNumberParams) (*provision.PhoneNumber, error) {
	s.calls = append(s.calls, "UpdatePhoneNumber "+sid+" "+params.VoiceApplicationSID)
	pn, ok := s.numbers[sid]
	if !ok {
		return nil, provision.ErrNotFound
	}
	pn.VoiceApplicationSID = params.VoiceApplicationSID
	pn.SMSApplicationSID = params.SMSApplicationSID
	return s.remember(pn), nil
}

type result struct {
	stdout  string
	stderr  string
	calls   []string
	created bool
	err     error
}

func execute(t *testing.T, input string, args ...string) result {
	t.Helper()

	for _, name := range []string{"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_APP_SID", "TWILIO_CALLER_ID"} {
		t.Setenv(name, "")
	}

	var (
		res      result
		provider = &stubProvider{}
	)
	cmd := newRootCommand(func(accountSID, authToken string) provision.Provider {
		res.created = true
		return provider
	})

	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "hackpack.yaml"), "--skip-heroku"}, args...))

	res.err = cmd.Execute()
	res.stdout = stdout.String()
	res.stderr = stderr.String()
	res.calls = provider.calls
	return res
}

func TestConfigure_MissingCredentials(t *testing.T) {
	res := execute(t, "", "--domain", "example.herokuapp.com")

	require.Error(t, res.err)
	assert.True(t, provision.IsKind(res.err, provision.KindMissingCredential))
	assert.False(t, res.created)
}

func TestConfigure_NewApplicationAndNumber(t *testing.T) {
	res := execute(t, "y\ny\ny\n",
		"-S", "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		"-K", "yyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyy",
		"-d", "example.herokuapp.com",
		"--area-code", "212",
	)

	require.NoError(t, res.err)
	assert.Equal(t, []string{
		"CreateApplication http://example.herokuapp.com/voice",
		"PurchasePhoneNumber 212",
		"UpdatePhoneNumber PNnew APnew",
	}, res.calls)
	assert.Contains(t, res.stdout, "export TWILIO_APP_SID=APnew\n")
	assert.Contains(t, res.stdout, "export TWILIO_CALLER_ID=+12125550100\n")
	assert.Contains(t, res.stdout, "Call (212) 555-0100 to test!")
}

func TestConfigure_ExistingApplicationAndNumber(t *testing.T) {
	res := execute(t, "",
		"-S", "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		"-K", "yyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyy",
		"-a", "APexisting",
		"-p", "+16465550100",
		"-d", "https://hackpack.example.com",
		"-v", "/calls",
	)

	require.NoError(t, res.err)
	assert.Equal(t, []string{
		"UpdateApplication APexisting",
		"FindPhoneNumber +16465550100",
		"UpdatePhoneNumber PNexisting APexisting",
	}, res.calls)
	assert.Contains(t, res.stdout, "export TWILIO_CALLER_ID=+16465550100\n")
	assert.NotContains(t, res.stdout, "[y/n]")
}

func TestConfigure_ForceNewOverridesEnvironment(t *testing.T) {
	res := execute(t, "y\ny\ny\n",
		"-S", "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		"-K", "yyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyy",
		"-a", "APexisting",
		"-p", "+16465550100",
		"-d", "example.herokuapp.com",
		"--new-app",
		"--new",
	)

	require.NoError(t, res.err)
	require.Len(t, res.calls, 3)
	assert.True(t, strings.HasPrefix(res.calls[0], "CreateApplication"))
	assert.Equal(t, "PurchasePhoneNumber 646", res.calls[1])
}

func TestConfigure_Declined(t *testing.T) {
	res := execute(t, "n\n",
		"-S", "ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		"-K", "yyyyyyyyyyyyyyyyyyyyyyyyyyyyyyyy",
		"-d", "example.herokuapp.com",
	)

	require.Error(t, res.err)
	assert.True(t, provision.IsKind(res.err, provision.KindDeclined))
	assert.Empty(t, res.calls)
}

func TestConfigure_RejectsArguments(t *testing.T) {
	res := execute(t, "", "unexpected")
	assert.Error(t, res.err)
}
