package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/wallet"
)

var errLocked = errors.New("locked, run 'unlock' first")

func (a *App) unlocked(ctx context.Context) (string, error) {
	if !a.isUnlocked() {
		return "", errLocked
	}
	return a.password(ctx)
}

// pickWallet prompts for a wallet by its display name or public key.
func (a *App) pickWallet(prompt string) (*wallet.Wallet, error) {
	id, err := GetSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return nil, err
	}
	if w, ok := a.store.Wallet(id); ok {
		return w, nil
	}
	for _, w := range a.store.Wallets() {
		if w.Name == id {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: wallet %q", common.ErrNotFound, id)
}

// CreateWallet generates a fresh wallet and prints its recovery phrase. The
// phrase is shown exactly once; only its encrypted form is stored.
func (a *App) CreateWallet(ctx context.Context) error {
	password, err := a.unlocked(ctx)
	if err != nil {
		return err
	}

	name, err := GetSimpleText(a.reader, "Wallet name", os.Stdout)
	if err != nil {
		return err
	}

	w, phrase, err := a.store.Create(ctx, name, password)
	if err != nil {
		return err
	}

	printlnFn("Wallet created.")
	printlnFn("  principal:", w.Principal)
	printlnFn("  account:  ", w.AccountID)
	printlnFn("Recovery phrase (write it down now, it is not shown again):")
	printlnFn(" ", phrase)
	return nil
}

// ImportWallet recovers a wallet from a BIP-39 phrase.
func (a *App) ImportWallet(ctx context.Context) error {
	password, err := a.unlocked(ctx)
	if err != nil {
		return err
	}

	name, err := GetSimpleText(a.reader, "Wallet name", os.Stdout)
	if err != nil {
		return err
	}
	phrase, err := GetPhrase(a.reader, os.Stdout)
	if err != nil {
		return err
	}

	w, err := a.store.ImportPhrase(ctx, name, phrase, password)
	if err != nil {
		return err
	}
	printlnFn("Wallet imported.")
	printlnFn("  principal:", w.Principal)
	printlnFn("  account:  ", w.AccountID)
	return nil
}

// ImportKey recovers a wallet from a raw hex private key. The key is read
// without echo.
func (a *App) ImportKey(ctx context.Context) error {
	password, err := a.unlocked(ctx)
	if err != nil {
		return err
	}

	name, err := GetSimpleText(a.reader, "Wallet name", os.Stdout)
	if err != nil {
		return err
	}
	key, err := GetPassword(os.Stdout, "Private key (hex): ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	w, err := a.store.ImportPrivateKey(ctx, name, string(key), password)
	if err != nil {
		return err
	}
	printlnFn("Wallet imported.")
	printlnFn("  principal:", w.Principal)
	printlnFn("  account:  ", w.AccountID)
	return nil
}

// ListWallets prints every wallet with its addresses and asset counts.
func (a *App) ListWallets(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	wallets := a.store.Wallets()
	if len(wallets) == 0 {
		printlnFn("No wallets yet. Use 'create' or 'import'.")
		return nil
	}
	for _, w := range wallets {
		printlnFn(fmt.Sprintf("%s  (%d tokens, %d nfts)", w.Name, len(w.Tokens), len(w.NFTs)))
		printlnFn("  public:   ", w.Public)
		printlnFn("  principal:", w.Principal)
		printlnFn("  account:  ", w.AccountID)
	}
	return nil
}

// RenameWallet changes a wallet's display name.
func (a *App) RenameWallet(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	w, err := a.pickWallet("Wallet to rename (name or public key)")
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "New name", os.Stdout)
	if err != nil {
		return err
	}
	return a.store.Rename(ctx, w.Public, name)
}

// DeleteWallet removes a wallet locally after confirmation. The keys on the
// chain are untouched; the wallet can be re-imported from its phrase.
func (a *App) DeleteWallet(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	w, err := a.pickWallet("Wallet to delete (name or public key)")
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Delete %q? It can only be recovered from its phrase or key.", w.Name), os.Stdout) {
		printlnFn("Cancelled.")
		return nil
	}
	return a.store.Delete(ctx, w.Public)
}

// Reveal prints a wallet's recovery phrase after re-prompting for the
// master password. The session password is deliberately not reused here:
// revealing a secret always costs a fresh confirmation.
func (a *App) Reveal(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	w, err := a.pickWallet("Wallet (name or public key)")
	if err != nil {
		return err
	}

	pw, err := GetPassword(os.Stdout, "Master password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	phrase, err := w.RevealMnemonic(string(pw))
	if err != nil {
		return err
	}
	printlnFn("Recovery phrase:")
	printlnFn(" ", phrase)
	return nil
}
