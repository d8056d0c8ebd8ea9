package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tundrawallet/tundra/internal/flagx"
	"github.com/tundrawallet/tundra/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the session timeout either as a string
// like "30m" or as integer nanoseconds.
type JsonConfig struct {
	DataDir        string         `json:"data_dir"`
	LedgerEndpoint string         `json:"ledger_endpoint"`
	SessionTimeout timex.Duration `json:"session_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags via
// flagx.JsonConfigFlags(); when neither is present, nothing is loaded. Empty
// JSON fields leave the current value in place. Read or unmarshal errors
// panic (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.LedgerEndpoint != "" {
		cfg.LedgerEndpoint = jc.LedgerEndpoint
	}
	if jc.SessionTimeout.Duration != 0 {
		cfg.SessionTimeout = time.Duration(jc.SessionTimeout.Duration)
	}
}
