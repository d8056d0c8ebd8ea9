package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	unlocked bool

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isUnlocked() bool { return f.unlocked }
func (f *fakeExec) Setup(ctx context.Context) error {
	return f.record("setup")
}
func (f *fakeExec) Unlock(ctx context.Context) error {
	f.unlocked = true
	return f.record("unlock")
}
func (f *fakeExec) Lock(ctx context.Context) error {
	f.unlocked = false
	return f.record("lock")
}
func (f *fakeExec) CreateWallet(ctx context.Context) error { return f.record("create") }
func (f *fakeExec) ImportWallet(ctx context.Context) error { return f.record("import") }
func (f *fakeExec) ImportKey(ctx context.Context) error    { return f.record("importkey") }
func (f *fakeExec) ListWallets(ctx context.Context) error  { return f.record("list") }
func (f *fakeExec) RenameWallet(ctx context.Context) error { return f.record("rename") }
func (f *fakeExec) DeleteWallet(ctx context.Context) error { return f.record("delete") }
func (f *fakeExec) Reveal(ctx context.Context) error       { return f.record("reveal") }
func (f *fakeExec) Balance(ctx context.Context, args []string) error {
	f.args = append(f.args, args)
	return f.record("balance")
}
func (f *fakeExec) Send(ctx context.Context, args []string) error {
	f.args = append(f.args, args)
	return f.record("send")
}
func (f *fakeExec) History(ctx context.Context, args []string) error {
	f.args = append(f.args, args)
	return f.record("history")
}
func (f *fakeExec) AddToken(ctx context.Context) error     { return f.record("addtoken") }
func (f *fakeExec) AddNFT(ctx context.Context) error       { return f.record("addnft") }
func (f *fakeExec) CheckNFTs(ctx context.Context) error    { return f.record("nfts") }
func (f *fakeExec) AddContact(ctx context.Context) error   { return f.record("addcontact") }
func (f *fakeExec) ListContacts(ctx context.Context) error { return f.record("contacts") }

func TestRunREPL_UnlockFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join([]string{
		"help",
		"unlock",
		"help",
		"create",
		"list",
		"balance w1 ledger1",
		"send w1 ledger1 dest 100",
		"nfts",
		"foobar",
		"lock",
		"exit",
	}, "\n"))

	exec := &fakeExec{unlocked: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"unlock", "create", "list", "balance", "send", "nfts", "lock"}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}

	if len(exec.args) != 3 || exec.args[1][2] != "dest" {
		t.Fatalf("send args not forwarded: %v", exec.args)
	}
}

func TestRunREPL_EOFExits(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader("\n   \n")
	exec := &fakeExec{unlocked: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
