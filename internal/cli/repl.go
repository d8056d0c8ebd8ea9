package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Setup(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	CreateWallet(ctx context.Context) error
	ImportWallet(ctx context.Context) error
	ImportKey(ctx context.Context) error
	ListWallets(ctx context.Context) error
	RenameWallet(ctx context.Context) error
	DeleteWallet(ctx context.Context) error
	Reveal(ctx context.Context) error
	Balance(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	AddToken(ctx context.Context) error
	AddNFT(ctx context.Context) error
	CheckNFTs(ctx context.Context) error
	AddContact(ctx context.Context) error
	ListContacts(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the wallet console.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are printed here and the loop
// continues; a failed command never takes the console down.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	report := func(err error) {
		if err != nil {
			printlnFn("Error:", err)
		}
	}

	for {
		printlnFn(fmt.Sprintf("tnd %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Wallets:  create, import, importkey, (l)ist, rename, delete, reveal")
				printlnFn("Assets:   balance <wallet> <ledger>, send <wallet> <ledger> <to> <amount>, history <wallet> <ledger>, addtoken, addnft, nfts")
				printlnFn("Contacts: contacts, addcontact")
				printlnFn("Session:  lock, exit")
			} else {
				printlnFn("Available commands: setup, unlock, exit")
			}

		case "setup":
			report(a.Setup(ctx))

		case "unlock":
			report(a.Unlock(ctx))

		case "lock":
			report(a.Lock(ctx))

		case "create":
			report(a.CreateWallet(ctx))

		case "import":
			report(a.ImportWallet(ctx))

		case "importkey":
			report(a.ImportKey(ctx))

		case "l", "list":
			report(a.ListWallets(ctx))

		case "rename":
			report(a.RenameWallet(ctx))

		case "delete":
			report(a.DeleteWallet(ctx))

		case "reveal":
			report(a.Reveal(ctx))

		case "balance":
			report(a.Balance(ctx, args))

		case "send":
			report(a.Send(ctx, args))

		case "history":
			report(a.History(ctx, args))

		case "addtoken":
			report(a.AddToken(ctx))

		case "addnft":
			report(a.AddNFT(ctx))

		case "nfts":
			report(a.CheckNFTs(ctx))

		case "addcontact":
			report(a.AddContact(ctx))

		case "contacts":
			report(a.ListContacts(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
