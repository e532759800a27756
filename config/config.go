// Package config loads the mixnet daemon's configuration from flags,
// environment variables, and defaults, following the viper/pflag layering
// of cmd/davinci-sequencer's config.go.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultAPIHost  = "0.0.0.0"
	defaultAPIPort  = 9091
	defaultLogLevel = "info"
	defaultLogOut   = "stdout"
	defaultDatadir  = ".mixnet" // prefixed with the user's home directory
	defaultDBType   = "pebble"
)

// Config holds the mixnet daemon's full configuration.
type Config struct {
	Node    NodeConfig
	API     APIConfig
	Log     LogConfig
	Datadir string
	DBType  string `mapstructure:"dbtype"`
}

// NodeConfig fixes this process's role in the protocol (spec §4.6's role
// model): the identity it authenticates transitions as, and, when acting
// as the authority, the full set of sealer identities.
type NodeConfig struct {
	Identity  string   `mapstructure:"identity"`  // this process's caller identity
	Authority string   `mapstructure:"authority"` // the voting authority's identity
	Sealers   []string `mapstructure:"sealers"`   // every registered sealer identity
}

// APIConfig holds the HTTP surface's address.
type APIConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Enabled bool   `mapstructure:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from command-line flags, MIXNET_-prefixed
// environment variables, and defaults, in that order of precedence.
func Load(args []string) (*Config, error) {
	v := viper.New()
	fs := flag.NewFlagSet("mixnet", flag.ContinueOnError)

	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("api.host", defaultAPIHost)
	v.SetDefault("api.port", defaultAPIPort)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOut)
	v.SetDefault("datadir", defaultDatadirPath)
	v.SetDefault("dbtype", defaultDBType)

	fs.StringP("node.identity", "i", "", "this process's caller identity (required)")
	fs.String("node.authority", "", "the voting authority's identity")
	fs.StringSlice("node.sealers", []string{}, "comma-separated sealer identities")
	fs.StringP("api.host", "h", defaultAPIHost, "HTTP API host")
	fs.IntP("api.port", "p", defaultAPIPort, "HTTP API port")
	fs.Bool("api.enabled", false, "serve the optional HTTP API")
	fs.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringP("log.output", "o", defaultLogOut, "log output (stdout, stderr or filepath)")
	fs.StringP("datadir", "d", defaultDatadirPath, "data directory for the vote database")
	fs.String("dbtype", defaultDBType, "database backend (pebble or leveldb)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mixnet [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables are also available with the same name as flags,\n")
		fmt.Fprintf(os.Stderr, "  except for dashes (-) and dots (.) which are replaced by underscores (_).\n")
		fmt.Fprintf(os.Stderr, "  For example, MIXNET_NODE_IDENTITY or MIXNET_API_PORT\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("MIXNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants Load cannot enforce on its own: an
// identity is always required, and it must be registered as either the
// authority or one of the sealers.
func (cfg *Config) Validate() error {
	if cfg.Node.Identity == "" {
		return fmt.Errorf("node identity is required (use --node.identity or MIXNET_NODE_IDENTITY)")
	}
	if cfg.Node.Authority == "" {
		return fmt.Errorf("voting authority identity is required (use --node.authority or MIXNET_NODE_AUTHORITY)")
	}
	isAuthority := cfg.Node.Identity == cfg.Node.Authority
	isSealer := false
	for _, s := range cfg.Node.Sealers {
		if s == cfg.Node.Identity {
			isSealer = true
			break
		}
	}
	if !isAuthority && !isSealer {
		return fmt.Errorf("identity %q is neither the authority nor a registered sealer", cfg.Node.Identity)
	}
	if cfg.DBType != "pebble" && cfg.DBType != "leveldb" {
		return fmt.Errorf("invalid dbtype %q, must be pebble or leveldb", cfg.DBType)
	}
	return nil
}
