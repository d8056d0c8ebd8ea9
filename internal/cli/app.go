// Package cli implements the interactive wallet console: a small REPL over
// the wallet store, the session manager and the asset ledger handles.
package cli

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/tundrawallet/tundra/internal/cache"
	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/config"
	"github.com/tundrawallet/tundra/internal/filex"
	"github.com/tundrawallet/tundra/internal/ledger"
	"github.com/tundrawallet/tundra/internal/logging"
	"github.com/tundrawallet/tundra/internal/session"
	"github.com/tundrawallet/tundra/internal/storage"
	"github.com/tundrawallet/tundra/internal/wallet"
)

// App wires the wallet core together and owns the shared services: the TTL
// cache and the session manager belong to the App, the wallet store and the
// asset handles borrow them.
type App struct {
	config    *config.Config
	log       logging.Logger
	db        *storage.Badger
	ephemeral *storage.Memory
	cache     *cache.Memory
	refreshed *cache.Refreshed
	session   *session.Manager
	store     *wallet.Store
	health    *ledger.Health
	auth      *session.AuthRecord
	reader    *bufio.Reader
}

// NewApp opens the durable store, loads persisted state and builds the
// remote asset handles. The caller owns the returned App and must Close it.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop{}
	}

	dbDir, err := filex.EnsureDir(filepath.Join(cfg.DataDir, "db"))
	if err != nil {
		return nil, err
	}
	db, err := storage.NewBadger(dbDir)
	if err != nil {
		return nil, err
	}

	mem, err := cache.NewMemory()
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		config:    cfg,
		log:       log,
		db:        db,
		ephemeral: storage.NewMemory(),
		cache:     mem,
		refreshed: cache.NewRefreshed(db),
		reader:    bufio.NewReader(os.Stdin),
	}

	auth, err := session.LoadAuth(ctx, db)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		a.Close()
		return nil, err
	}
	a.auth = auth

	var secret []byte
	if auth != nil {
		secret = auth.Hash
	}
	a.session = session.NewManager(a.ephemeral, secret, cfg.SessionTimeout, log)

	a.store = wallet.NewStore(db, log)
	if err := a.store.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.health = ledger.NewHealth(a.setOffline)
	a.store.BuildAssets(cfg.LedgerEndpoint, a.cache, a.health)

	return a, nil
}

// setOffline is the Health change hook: it fires once per flip, so the user
// sees one line per outage, not one per failed call. The indicator itself
// lives in Health; the hook only reports.
func (a *App) setOffline(offline bool) {
	if offline {
		a.log.Warn(context.Background(), "ledger gateway unreachable, switching to offline mode")
	} else {
		a.log.Info(context.Background(), "ledger gateway reachable again")
	}
}

func (a *App) isUnlocked() bool {
	status, err := a.session.Status(context.Background())
	return err == nil && status == session.StatusValid
}

// password returns the session-scoped plaintext password, prompting the
// user to unlock first when no session is valid.
func (a *App) password(ctx context.Context) (string, error) {
	return a.session.Password(ctx)
}

// Run drives the session state machine once and hands control to the REPL.
func (a *App) Run(ctx context.Context) error {
	printlnFn("Tundra wallet console (type 'help' for commands)")

	err := a.session.Init(ctx, session.Hooks{
		OnCreate: func(ctx context.Context) error {
			if a.auth == nil {
				printlnFn("No master password set. Run 'setup' first.")
			} else {
				printlnFn("Locked. Run 'unlock' to start a session.")
			}
			return nil
		},
		OnContinue: func(ctx context.Context) error {
			printlnFn("Session continued.")
			return nil
		},
		OnExpired: func(ctx context.Context) error {
			printlnFn("Session expired. Run 'unlock' to start a new one.")
			return nil
		},
	})
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
	return nil
}

func (a *App) status() string {
	offline := a.health.Offline()
	switch {
	case offline && a.isUnlocked():
		return "(unlocked offline)"
	case offline:
		return "(offline)"
	case a.isUnlocked():
		return "(unlocked)"
	default:
		return "(locked)"
	}
}

// Close releases the durable store and the cache. Safe to call once.
func (a *App) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
