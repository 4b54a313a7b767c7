package provision

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeProvider records calls and serves an in-memory account.
type fakeProvider struct {
	mu      sync.Mutex
	calls   []string
	apps    map[string]*Application
	numbers map[string]*PhoneNumber
	nextID  int

	failCreate   error
	failUpdate   error
	failPurchase error
	failLink     error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		apps:    make(map[string]*Application),
		numbers: make(map[string]*PhoneNumber),
	}
}

func (f *fakeProvider) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeProvider) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%032d", prefix, f.nextID)
}

func (f *fakeProvider) addApplication(sid string) {
	f.apps[sid] = &Application{SID: sid, FriendlyName: "existing"}
}

func (f *fakeProvider) addNumber(number string) *PhoneNumber {
	pn := &PhoneNumber{SID: f.id("PN"), Number: number, FriendlyName: friendly(number)}
	f.numbers[pn.SID] = pn
	return pn
}

func (f *fakeProvider) CreateApplication(_ context.Context, params ApplicationParams) (*Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateApplication")
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	app := &Application{SID: f.id("AP"), FriendlyName: params.FriendlyName, VoiceURL: params.VoiceURL, SMSURL: params.SMSURL}
	f.apps[app.SID] = app
	cp := *app
	return &cp, nil
}

func (f *fakeProvider) UpdateApplication(_ context.Context, sid string, params ApplicationParams) (*Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateApplication %s", sid)
	if f.failUpdate != nil {
		return nil, f.failUpdate
	}
	app, ok := f.apps[sid]
	if !ok {
		return nil, ErrNotFound
	}
	app.VoiceURL = params.VoiceURL
	app.SMSURL = params.SMSURL
	cp := *app
	return &cp, nil
}

func (f *fakeProvider) FindPhoneNumber(_ context.Context, number string) (*PhoneNumber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindPhoneNumber %s", number)
	for _, pn := range f.numbers {
		if pn.Number == number {
			cp := *pn
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeProvider) PurchasePhoneNumber(_ context.Context, areaCode string) (*PhoneNumber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PurchasePhoneNumber %s", areaCode)
	if f.failPurchase != nil {
		return nil, f.failPurchase
	}
	pn := f.addNumber("+1" + areaCode + "5550100")
	cp := *pn
	return &cp, nil
}

func (f *fakeProvider) UpdatePhoneNumber(_ context.Context, sid string, params PhoneNumberParams) (*PhoneNumber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdatePhoneNumber %s", sid)
	if f.failLink != nil {
		return nil, f.failLink
	}
	pn, ok := f.numbers[sid]
	if !ok {
		return nil, ErrNotFound
	}
	pn.VoiceApplicationSID = params.VoiceApplicationSID
	pn.SMSApplicationSID = params.SMSApplicationSID
	cp := *pn
	return &cp, nil
}

func (f *fakeProvider) methods() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		name, _, _ := strings.Cut(c, " ")
		out = append(out, name)
	}
	return out
}

func friendly(number string) string {
	if len(number) != 12 {
		return number
	}
	return fmt.Sprintf("(%s) %s-%s", number[2:5], number[5:8], number[8:])
}

// scriptedAsker replays canned answers and counts prompts.
type scriptedAsker struct {
	answers []string
	prompts []string
}

func (s *scriptedAsker) Ask(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return "", fmt.Errorf("no scripted answer for %q", prompt)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

type recordingRunner struct {
	name string
	args []string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.name = name
	r.args = args
	return r.err
}
