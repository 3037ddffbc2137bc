package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ossyrian/pk2kit"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract every file from a PK2 archive to a local directory",
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "directory to extract files into (required)")
	extractCmd.MarkFlagRequired("output")
	viperBindLocal(extractCmd, "output", "output")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	codec, err := codecFor(cfg.Codec)
	if err != nil {
		return err
	}

	stream, f, err := openArchiveStream(cfg.Archive)
	if err != nil {
		return err
	}
	defer f.Close()

	archive, err := pk2.Open(stream, []byte(cfg.Key), pk2.WithCodec(codec), pk2.WithLogger(slogLogger()))
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.Archive, err)
	}

	return walkArchive(archive, "/", func(fullPath string, entry pk2.DirEntry) error {
		dest := filepath.Join(cfg.OutputDir, filepath.FromSlash(fullPath))
		if entry.Kind == pk2.EntryDirectory {
			return os.MkdirAll(dest, 0o755)
		}
		if cfg.DryRun {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return extractOne(archive, fullPath, dest)
	})
}

func extractOne(a *pk2.Archive, archivePath, destPath string) error {
	src, err := a.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening %s in archive: %w", archivePath, err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("extracting %s: %w", archivePath, err)
	}
	return nil
}
