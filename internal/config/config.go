// Package config holds the CLI-level configuration bound through viper/cobra
// in cmd/pk2cli. The core library (internal/pk2format, internal/engine, the
// root pk2 package) takes no dependency on it or on viper/cobra.
package config

// Config holds pk2cli configuration, populated by viper from flags, a config
// file, and the PK2CLI_ environment prefix.
type Config struct {
	// Archive is the path to the PK2 archive operated on.
	Archive string `mapstructure:"archive"`
	// Key is the archive's Blowfish key. Defaults to the well-known
	// Silkroad Online default key (the --key flag's default) when not set;
	// an explicitly empty value is used as is.
	Key string `mapstructure:"key"`
	// Codec selects the name encoding: "identity" (UTF-8) or "euc-kr".
	Codec string `mapstructure:"codec"`

	// InputDir is the local directory tree `pack` reads files from.
	InputDir string `mapstructure:"input"`
	// OutputDir is the local directory tree `extract` writes files to.
	OutputDir string `mapstructure:"output"`
	// RepackOutput is the path `repack` writes the rebuilt archive to.
	RepackOutput string `mapstructure:"repack_output"`

	DryRun       bool   `mapstructure:"dry_run"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
