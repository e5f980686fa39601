package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult is the merged view of flags, env and config file
// that the rest of the server consumes.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "env" or "config"
}

// ParseCommandFlags parses command-line flags and records which were set
// explicitly so they can win over env/config values.
func ParseCommandFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: set}
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays CHATD_* environment variables onto cfg and reports
// whether any were present.
func applyEnv(cfg *Config) bool {
	used := false
	if v := os.Getenv("CHATD_ADDR"); v != "" {
		used = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("CHATD_DB_PATH"); v != "" {
		used = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("CHATD_LOG_LEVEL"); v != "" {
		used = true
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CHATD_BACKBONE_PUBLISH"); v != "" {
		used = true
		cfg.Backbone.Enabled = true
		cfg.Backbone.Publish = v
	}
	if v := os.Getenv("CHATD_BACKBONE_PEERS"); v != "" {
		used = true
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.Backbone.Peers = append(cfg.Backbone.Peers, s)
			}
		}
	}
	return used
}

// LoadEffective merges config file, env and flags (flags win, then env,
// then file) into the effective result used at startup. A missing config
// file is not an error; defaults apply.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	cfg := &Config{}
	source := "flags"

	if b, err := os.ReadFile(flags.Config); err == nil {
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return EffectiveConfigResult{}, err
		}
		source = "config"
	} else if !os.IsNotExist(err) {
		return EffectiveConfigResult{}, err
	} else if flags.Set["config"] {
		// an explicitly requested config file must exist
		return EffectiveConfigResult{}, err
	}

	if applyEnv(cfg) {
		source = "env"
	}

	addr := cfg.Addr()
	if flags.Set["addr"] || (cfg.Server.Address == "" && cfg.Server.Port == 0) {
		addr = flags.Addr
		if flags.Set["addr"] {
			source = "flags"
		}
	}
	dbPath := cfg.Server.DBPath
	if flags.Set["db"] || dbPath == "" {
		dbPath = flags.DB
	}

	applyDefaults(cfg)
	return EffectiveConfigResult{Config: cfg, Addr: addr, DBPath: dbPath, Source: source}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Hub.SendQueue <= 0 {
		cfg.Hub.SendQueue = 256
	}
	if cfg.Fanout.Workers <= 0 {
		cfg.Fanout.Workers = 4
	}
	if cfg.Fanout.Queue <= 0 {
		cfg.Fanout.Queue = 4096
	}
	if cfg.Limits.EventRPS <= 0 {
		cfg.Limits.EventRPS = 50
	}
	if cfg.Limits.EventBurst <= 0 {
		cfg.Limits.EventBurst = 100
	}
	if cfg.Media.ThumbnailMaxPx <= 0 {
		cfg.Media.ThumbnailMaxPx = 320
	}
	if cfg.Media.MaxUploadBytes <= 0 {
		cfg.Media.MaxUploadBytes = 8 << 20
	}
	if cfg.Retention.Cron == "" {
		cfg.Retention.Cron = "0 2 * * *"
	}
}
