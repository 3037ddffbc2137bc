package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/ossyrian/pk2kit"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the contents of a PK2 archive",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
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

	return walkArchive(archive, "/", func(p string, entry pk2.DirEntry) error {
		fmt.Printf("%-10s %10d  %s\n", entry.Kind, entry.Size, p)
		return nil
	})
}

// walkArchive recursively visits every entry under dir in directory-order,
// invoking visit with the entry's full archive path.
func walkArchive(a *pk2.Archive, dir string, visit func(fullPath string, entry pk2.DirEntry) error) error {
	entries, err := a.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		full := path.Join(dir, entry.Name)
		if err := visit(full, entry); err != nil {
			return err
		}
		if entry.Kind == pk2.EntryDirectory {
			if err := walkArchive(a, full, visit); err != nil {
				return err
			}
		}
	}
	return nil
}
