// Command pk2cli extracts, packs, repacks, and lists PK2 archives (spec §6,
// informative): the external collaborator the pk2 library is deliberately
// sans-I/O and sans-transport with respect to.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/pk2kit"
	"github.com/ossyrian/pk2kit/internal/config"
	"github.com/ossyrian/pk2kit/internal/logging"
	"github.com/ossyrian/pk2kit/internal/textenc"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pk2cli",
	Short: "Read and write Silkroad Online PK2 archives",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringP("archive", "a", "", "path to the PK2 archive")
	rootCmd.PersistentFlags().StringP("key", "k", pk2.DefaultKey, "archive Blowfish key")
	rootCmd.PersistentFlags().String("codec", "identity", "name codec: identity or euc-kr")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to also write log files to")

	viper.BindPFlag("archive", rootCmd.PersistentFlags().Lookup("archive"))
	viper.BindPFlag("key", rootCmd.PersistentFlags().Lookup("key"))
	viper.BindPFlag("codec", rootCmd.PersistentFlags().Lookup("codec"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))

	rootCmd.AddCommand(extractCmd, packCmd, repackCmd, listCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pk2cli"))
		}
		viper.AddConfigPath("/etc/pk2cli")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("PK2CLI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig unmarshals viper into cfg and sets up logging, common prep
// every subcommand needs before touching an archive.
func loadConfig() (*config.Config, error) {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir, cfg.Archive); err != nil {
		return nil, fmt.Errorf("could not set up logging: %w", err)
	}
	if cfg.Archive == "" {
		return nil, fmt.Errorf("--archive is required")
	}
	return cfg, nil
}

// codecFor resolves the configured name codec.
func codecFor(name string) (textenc.Codec, error) {
	switch name {
	case "", "identity":
		return textenc.Identity{}, nil
	case "euc-kr", "euckr":
		return textenc.EUCKR{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q (want identity or euc-kr)", name)
	}
}

func slogLogger() *slog.Logger { return slog.Default() }

// viperBindLocal binds one of cmd's own (non-persistent) flags to a viper
// key, the same way init() binds the root command's persistent flags.
func viperBindLocal(cmd *cobra.Command, viperKey, flagName string) {
	viper.BindPFlag(viperKey, cmd.Flags().Lookup(flagName))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
