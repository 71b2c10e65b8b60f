package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"eventcal/internal/config"
	appLog "eventcal/internal/log"
	"eventcal/internal/store"
	"eventcal/internal/store/boltdb"
	"eventcal/internal/store/jsonfile"
)

// conf is loaded once per invocation by setup.
var conf *config.Config

// setup loads .env and the config file, applies global flag overrides and
// configures logging.
func setup(c *cli.Context) error {
	appLog.SetOutput(c.App.ErrWriter)

	if err := config.LoadEnv(); err != nil {
		appLog.Warn("ignoring .env", "err", err.Error())
	}

	path := config.ResolvePath(c.GlobalString("config"))
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			return fmt.Errorf("failed to load config %s: %w", path, err)
		}
		appLog.Warn("could not write default config; using defaults", "config_path", path, "err", err.Error())
	}

	if v := c.GlobalString("data"); v != "" {
		cfg.DataFile = v
	}
	if v := c.GlobalString("backend"); v != "" {
		switch strings.ToLower(v) {
		case config.BackendJSON, config.BackendBolt:
			cfg.Backend = strings.ToLower(v)
		default:
			return fmt.Errorf("unknown backend %q", v)
		}
	}

	level := appLog.ParseLevel(cfg.LogLevel)
	if c.GlobalBool("debug") {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	appLog.Debug("effective config",
		"config_path", path,
		"data_file", cfg.DataFile,
		"backend", cfg.Backend,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"backup_cron", cfg.BackupCron,
	)
	conf = cfg
	return nil
}

// newBackend builds the configured store backend.
func newBackend(cfg *config.Config) store.Backend {
	if cfg.Backend == config.BackendBolt {
		path := cfg.DataFile
		// The JSON default name makes no sense for a database file.
		if path == config.DefaultDataFile {
			path = boltdb.DefaultFile
		}
		if filepath.Ext(path) == ".json" {
			appLog.Warn("bolt backend pointed at a .json file", "path", path)
		}
		return boltdb.New(boltdb.Config{Path: path})
	}
	return jsonfile.New(cfg.DataFile)
}

// openStore loads the store and seeds it when empty.
func openStore() (*store.Store, error) {
	st := store.New(newBackend(conf))
	if _, err := st.Open(); err != nil {
		return nil, err
	}
	return st, nil
}
