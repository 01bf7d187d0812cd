package services

import (
	"context"
	"errors"
	"sync"

	"socialpush/models"
)

var errLookup = errors.New("lookup failed")

type fakeTokens struct {
	tokens map[string]string
	fail   map[string]bool
}

func newFakeTokens(tokens map[string]string) *fakeTokens {
	return &fakeTokens{tokens: tokens, fail: map[string]bool{}}
}

func (f *fakeTokens) PushToken(_ context.Context, userID string) (models.PushTarget, error) {
	if f.fail[userID] {
		return "", errLookup
	}
	return models.PushTarget(f.tokens[userID]), nil
}

type pushCall struct {
	Target models.PushTarget
	Msg    models.NotificationMessage
}

type fakePusher struct {
	mu    sync.Mutex
	calls []pushCall
	fail  map[models.PushTarget]bool
}

func newFakePusher() *fakePusher {
	return &fakePusher{fail: map[models.PushTarget]bool{}}
}

func (p *fakePusher) Driver() string { return "fake" }

func (p *fakePusher) Push(_ context.Context, target models.PushTarget, msg models.NotificationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pushCall{Target: target, Msg: msg})
	if p.fail[target] {
		return errors.New("channel rejected")
	}
	return nil
}

func (p *fakePusher) Calls() []pushCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushCall(nil), p.calls...)
}

// Targets - адресаты без учёта порядка (рассылка параллельная)
func (p *fakePusher) Targets() []models.PushTarget {
	calls := p.Calls()
	targets := make([]models.PushTarget, 0, len(calls))
	for _, c := range calls {
		targets = append(targets, c.Target)
	}
	return targets
}

type fakeFriendships struct {
	pairs map[[2]string]bool
	err   error
}

func (f *fakeFriendships) FriendshipExists(_ context.Context, a, b string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.pairs[[2]string{a, b}] || f.pairs[[2]string{b, a}], nil
}

type fakeProfiles map[string]string

func (f fakeProfiles) DisplayName(_ context.Context, userID string) (string, error) {
	return f[userID], nil
}

// tokenFor - в тестах токен пользователя "u" равен "tok-u"
func tokenFor(userID string) models.PushTarget {
	return models.PushTarget("tok-" + userID)
}

func tokensFor(userIDs ...string) *fakeTokens {
	tokens := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		tokens[id] = string(tokenFor(id))
	}
	return newFakeTokens(tokens)
}

func newTestNotifier(tokens TokenStore, pusher Pusher) *Notifier {
	return NewNotifier(NewResolver(tokens), NewDispatcher(pusher, 4))
}
