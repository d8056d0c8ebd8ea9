package config

import (
	"flag"
	"os"
	"time"

	"github.com/tundrawallet/tundra/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory for the durable store
//	-e string   base URL of the ledger gateway
//	-t int      session timeout in minutes
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-e", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LedgerEndpoint, "e", cfg.LedgerEndpoint, "ledger gateway base URL")
	sessionTimeout := fs.Int("t", int(cfg.SessionTimeout.Minutes()), "session timeout (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionTimeout = time.Duration(*sessionTimeout) * time.Minute
}
