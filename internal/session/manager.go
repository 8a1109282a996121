package session

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/taskboard/internal/apipaths"
)

// Navigator moves the user to another page. Browsers do a full-page
// navigation; the CLI prints a hint instead.
type Navigator func(path string)

// Manager owns the single session of a client process. Every read and write
// of the access token goes through it.
type Manager struct {
	mu       sync.RWMutex
	current  Session
	jar      *Jar
	store    Store
	navigate Navigator
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists mirrored state in s instead of process memory.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithNavigator sets the function used to leave protected pages.
func WithNavigator(n Navigator) Option {
	return func(m *Manager) { m.navigate = n }
}

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager with an empty jar scoped to baseURL.
func NewManager(baseURL string, opts ...Option) (*Manager, error) {
	jar, err := NewJar(baseURL)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		jar:    jar,
		store:  NewMemoryStore(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.navigate == nil {
		m.navigate = func(path string) {
			m.logger.Info("session: navigation requested", "path", path)
		}
	}

	jar.setOnChange(m.persist)
	return m, nil
}

// Jar returns the cookie jar every credential-bearing request must use.
func (m *Manager) Jar() http.CookieJar {
	return m.jar
}

// AccessToken returns the mirrored token, falling back to the access token
// cookie when nothing has been mirrored.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	token := m.current.AccessToken
	m.mu.RUnlock()

	if token != "" {
		return token
	}
	return m.jar.Value(AccessTokenCookie)
}

// Get returns the current session and whether one is held.
func (m *Manager) Get() (Session, bool) {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	if current.Empty() {
		current = FromToken(m.jar.Value(AccessTokenCookie))
	}
	return current, !current.Empty()
}

// Set mirrors a new access token and persists it.
func (m *Manager) Set(token string) error {
	s := FromToken(token)

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.logger.Debug("session: access token updated",
		"subject", s.Subject,
		"expires_at", s.ExpiresAt,
	)
	return m.save()
}

// Restore loads persisted state into the manager. A missing record is not
// an error.
func (m *Manager) Restore() error {
	rec, err := m.store.Load()
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	m.jar.Restore(rec.httpCookies())
	m.mu.Lock()
	m.current = FromToken(rec.AccessToken)
	m.mu.Unlock()

	m.logger.Debug("session: restored",
		"has_token", rec.AccessToken != "",
		"cookie_count", len(rec.Cookies),
		"saved_at", rec.SavedAt,
	)
	return nil
}

// Clear wipes every client-held session artifact: the mirrored token, the
// cookie jar and the persisted record.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()

	m.jar.Reset()
	return m.store.Delete()
}

// Terminate ends an unrecoverable session: state is cleared first, then the
// user is sent to the login page.
func (m *Manager) Terminate() {
	if err := m.Clear(); err != nil {
		m.logger.Warn("session: failed to clear persisted state", "error", err)
	}
	m.navigate(apipaths.LoginPage)
}

// persist runs whenever the jar receives cookies.
func (m *Manager) persist() {
	if err := m.save(); err != nil {
		m.logger.Warn("session: failed to persist cookies", "error", err)
	}
}

func (m *Manager) save() error {
	m.mu.RLock()
	token := m.current.AccessToken
	m.mu.RUnlock()

	return m.store.Save(&Record{
		AccessToken: token,
		Cookies:     cookieRecords(m.jar.Snapshot()),
		SavedAt:     time.Now().UTC(),
	})
}
