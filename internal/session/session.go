package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tundrawallet/tundra/internal/logging"
	"github.com/tundrawallet/tundra/internal/storage"
)

// keyMarker is the ephemeral-store key for the session marker.
const keyMarker = "session"

// Status is the session state as observed at a point in time.
type Status int

const (
	StatusNone Status = iota
	StatusExpired
	StatusValid
)

func (s Status) String() string {
	switch s {
	case StatusExpired:
		return "expired"
	case StatusValid:
		return "valid"
	default:
		return "none"
	}
}

// Hooks are the transition callbacks for Init. Any of them may be nil.
type Hooks struct {
	OnCreate   func(ctx context.Context) error
	OnContinue func(ctx context.Context) error
	OnExpired  func(ctx context.Context) error
}

// marker is the persisted session record. It lives only in the
// session-scoped store: Password is the already-unlocked plaintext kept for
// the session's duration to avoid re-prompting and must never be written
// durably.
type marker struct {
	Active   bool      `json:"active"`
	Password string    `json:"password"`
	Created  time.Time `json:"created"`
	Token    string    `json:"token"`
}

// Manager drives the NONE → ACTIVE → EXPIRED session state machine. All
// state lives in the ephemeral store, so re-entrant Init calls and status
// reads from visibility-change handlers are safe: every call re-reads the
// persisted marker instead of trusting in-process state.
type Manager struct {
	store   storage.Store
	secret  []byte
	timeout time.Duration
	log     logging.Logger
	now     func() time.Time
}

// NewManager builds a session manager over the ephemeral store. secret signs
// session tokens and is normally the stored password verifier (AuthRecord
// hash); timeout is the session lifetime.
func NewManager(store storage.Store, secret []byte, timeout time.Duration, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop{}
	}
	return &Manager{store: store, secret: secret, timeout: timeout, log: log, now: time.Now}
}

func (m *Manager) read(ctx context.Context) (*marker, error) {
	values, err := m.store.Get(ctx, keyMarker)
	if err != nil {
		return nil, fmt.Errorf("read session marker: %w", err)
	}
	raw, ok := values[keyMarker]
	if !ok {
		return nil, nil
	}

	var mk marker
	if err := json.Unmarshal(raw, &mk); err != nil {
		// A corrupt marker is treated as absent, not fatal.
		m.log.Warn(ctx, "discarding corrupt session marker")
		return nil, nil
	}
	return &mk, nil
}

// Init reads the persisted marker and dispatches exactly one hook:
// absent → OnCreate, expired → clear + OnExpired, otherwise OnContinue.
// Idempotent: the decision is driven purely by persisted state, so two
// overlapping Init calls settle on the same transition.
func (m *Manager) Init(ctx context.Context, hooks Hooks) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	switch status {
	case StatusNone:
		if hooks.OnCreate != nil {
			return hooks.OnCreate(ctx)
		}
	case StatusExpired:
		if err := m.Clear(ctx); err != nil {
			return err
		}
		m.log.Info(ctx, "session expired")
		if hooks.OnExpired != nil {
			return hooks.OnExpired(ctx)
		}
	case StatusValid:
		if hooks.OnContinue != nil {
			return hooks.OnContinue(ctx)
		}
	}
	return nil
}

// Create starts a session for an already-verified password: the caller must
// have checked the password against the stored AuthRecord first.
func (m *Manager) Create(ctx context.Context, password string) error {
	created := m.now()
	token, err := generateToken(m.secret, created, m.timeout)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	mk := marker{Active: true, Password: password, Created: created, Token: token}
	raw, err := json.Marshal(&mk)
	if err != nil {
		return fmt.Errorf("encode session marker: %w", err)
	}
	if err := m.store.Set(ctx, map[string][]byte{keyMarker: raw}); err != nil {
		return fmt.Errorf("persist session marker: %w", err)
	}

	m.log.Info(ctx, "session created")
	return nil
}

// Status is a pure read of the current session state; it never mutates the
// marker and is safe to call at arbitrary times.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	mk, err := m.read(ctx)
	if err != nil {
		return StatusNone, err
	}
	if mk == nil || !mk.Active {
		return StatusNone, nil
	}

	if _, err := validateToken(mk.Token, m.secret); err != nil {
		if err == errTokenExpired {
			return StatusExpired, nil
		}
		// Tampered or unverifiable: treat as no session at all.
		return StatusNone, nil
	}

	if m.now().Sub(mk.Created) > m.timeout {
		return StatusExpired, nil
	}
	return StatusValid, nil
}

// Password returns the session-scoped plaintext password for transient
// decryption. Fails unless the session is currently valid.
func (m *Manager) Password(ctx context.Context) (string, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return "", err
	}
	if status != StatusValid {
		return "", fmt.Errorf("no valid session (status %s)", status)
	}

	mk, err := m.read(ctx)
	if err != nil {
		return "", err
	}
	return mk.Password, nil
}

// Clear removes the session marker. Idempotent.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Remove(ctx, keyMarker)
}
