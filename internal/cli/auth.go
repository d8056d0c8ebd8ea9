package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/session"
)

// Setup creates the master password. Refused when one already exists: there
// is no password-change flow that would re-encrypt the stored wallets yet.
func (a *App) Setup(ctx context.Context) error {
	if a.auth != nil {
		return errors.New("master password already set")
	}

	pw, err := GetPassword(os.Stdout, "Choose a master password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	again, err := GetPassword(os.Stdout, "Repeat it: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if string(pw) != string(again) {
		return errors.New("passwords do not match")
	}

	rec, err := session.SetMasterPassword(ctx, a.db, string(pw))
	if err != nil {
		return err
	}
	a.auth = rec

	// The session token is signed with the stored verifier, so the manager
	// has to be rebuilt with the fresh secret.
	a.session = session.NewManager(a.ephemeral, rec.Hash, a.config.SessionTimeout, a.log)
	if err := a.session.Create(ctx, string(pw)); err != nil {
		return err
	}

	printlnFn("Master password set, session started.")
	return nil
}

// Unlock verifies the master password against the stored record and starts
// a session holding it.
func (a *App) Unlock(ctx context.Context) error {
	if a.auth == nil {
		return errors.New("no master password set, run 'setup' first")
	}

	pw, err := GetPassword(os.Stdout, "Master password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if !a.auth.Verify(string(pw)) {
		return fmt.Errorf("%w: wrong password", common.ErrAuthentication)
	}

	if err := a.session.Create(ctx, string(pw)); err != nil {
		return err
	}
	printlnFn("Unlocked.")
	return nil
}

// Lock clears the session marker. Idempotent.
func (a *App) Lock(ctx context.Context) error {
	if err := a.session.Clear(ctx); err != nil {
		return err
	}
	printlnFn("Locked.")
	return nil
}
