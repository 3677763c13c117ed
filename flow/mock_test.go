package flow

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/Fiedly71/up-to-date-store-sub000/domain"
	"github.com/Fiedly71/up-to-date-store-sub000/identity"
	"github.com/Fiedly71/up-to-date-store-sub000/order"
	"github.com/Fiedly71/up-to-date-store-sub000/token"
	"golang.org/x/crypto/bcrypt"
)

// mockRepo stores copies so that callers only observe changes they saved.
type mockRepo struct {
	mu       sync.Mutex
	accounts map[string]identity.Account
	orders   map[string]order.Order
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		accounts: make(map[string]identity.Account),
		orders:   make(map[string]order.Order),
	}
}

func (m *mockRepo) CreateAccount(_ context.Context, a *identity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = *a
	return nil
}

func (m *mockRepo) GetAccount(_ context.Context, id string) (*identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (m *mockRepo) GetAccountByEmail(_ context.Context, email string) (*identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRepo) UpdateAccount(_ context.Context, a *identity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return domain.ErrNotFound
	}
	m.accounts[a.ID] = *a
	return nil
}

func (m *mockRepo) UpdateCredentials(_ context.Context, a *identity.Account, previous int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.accounts[a.ID]
	if !ok || stored.CredentialStamp != previous {
		return domain.ErrConflict
	}
	stored.PasswordHash = a.PasswordHash
	stored.CredentialStamp = a.CredentialStamp
	stored.Invited = a.Invited
	m.accounts[a.ID] = stored
	return nil
}

func (m *mockRepo) ListAccounts(_ context.Context) ([]identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]identity.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockRepo) deleteAccount(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
}

func (m *mockRepo) CreateOrder(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockRepo) GetOrder(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id || o.Reference == id {
			c := cloneOrder(&o)
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRepo) UpdateOrder(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockRepo) ListOrders(_ context.Context, f order.Filter) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.orders {
		if f.AccountID != "" && o.AccountID != f.AccountID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, cloneOrder(&o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

func cloneOrder(o *order.Order) order.Order {
	c := *o
	c.Events = append([]order.StatusEvent(nil), o.Events...)
	return c
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []Message
}

func (n *captureNotifier) Notify(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *captureNotifier) last(t *testing.T) Message {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no message was sent")
	}
	return n.sent[len(n.sent)-1]
}

type countingRevoker struct {
	calls map[string]int
	err   error
}

func (r *countingRevoker) RevokeAll(_ context.Context, accountID string) error {
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[accountID]++
	return r.err
}

const testSecret = "0123456789abcdef0123456789abcdef"

func testSigner(t *testing.T) *token.Signer {
	t.Helper()
	s, err := token.NewSigner([]byte(testSecret))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return s
}

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

// tokenFromLink extracts the token query parameter of an account link.
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link %q: %v", link, err)
	}
	tok := u.Query().Get("token")
	if tok == "" || !strings.Contains(tok, token.Separator) {
		t.Fatalf("link %q carries no token", link)
	}
	return tok
}
