package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ossyrian/pk2kit"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack a local directory tree into a new PK2 archive",
	RunE:  runPack,
}

func init() {
	packCmd.Flags().StringP("input", "d", "", "local directory to pack (required)")
	packCmd.MarkFlagRequired("input")
	viperBindLocal(packCmd, "input", "input")
}

func runPack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	codec, err := codecFor(cfg.Codec)
	if err != nil {
		return err
	}

	stream, f, err := createArchiveStream(cfg.Archive)
	if err != nil {
		return err
	}
	defer f.Close()

	archive, err := pk2.Create(stream, []byte(cfg.Key), pk2.WithCodec(codec), pk2.WithLogger(slogLogger()))
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Archive, err)
	}

	root := cfg.InputDir
	return filepath.WalkDir(root, func(localPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, localPath)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		archivePath := "/" + filepath.ToSlash(rel)

		if d.IsDir() {
			return archive.MkdirAll(archivePath)
		}
		return packOne(archive, localPath, archivePath)
	})
}

func packOne(archive *pk2.Archive, localPath, archivePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	dst, err := archive.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating %s in archive: %w", archivePath, err)
	}
	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", archivePath, err)
	}
	return dst.Close()
}
