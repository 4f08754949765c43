package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/record"
)

// formatOf picks a record format from a file extension.
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".msgpack", ".mp":
		return "msgpack"
	}
	return "json"
}

// applyRecords reads exported records and applies them to the built model.
// Records of fragments the model lacks are created first.
func (a *App) applyRecords(ctx context.Context, path string) error {
	codec, err := record.CodecFor(formatOf(path))
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()

	records, err := codec.Decode(f)
	if err != nil {
		return fmt.Errorf("in %s: %w", path, err)
	}

	created := 0
	for _, r := range records {
		id, err := fragid.Parse(r.ID)
		if err != nil {
			return fmt.Errorf("in %s: %w", path, err)
		}
		if _, ok := a.model.Store.Get(id); ok {
			continue
		}
		if _, err := record.ToFragment(a.model.Store, a.model.Catalog, r); err != nil {
			return fmt.Errorf("in %s: %w", path, err)
		}
		created++
	}
	for _, r := range records {
		if err := record.Apply(ctx, a.model.Store, a.model.Catalog, r); err != nil {
			return fmt.Errorf("in %s: %w", path, err)
		}
	}
	a.logger.Info("Records applied.", "path", path, "records", len(records), "created", created)
	return nil
}

// Export writes the records of a fragment tree, or of every tree when ref is
// empty, in the given format.
func (a *App) Export(ctx context.Context, ref, format string, w io.Writer) error {
	start := time.Now()
	codec, err := record.CodecFor(format)
	if err != nil {
		return err
	}

	roots := a.model.Store.Roots()
	if ref != "" {
		f, err := a.Fragment(ref)
		if err != nil {
			return err
		}
		roots = []*fragment.Fragment{f}
	}

	var records []*record.Fragment
	for _, root := range roots {
		rs, err := record.FromTree(a.model.Store, root.ID)
		if err != nil {
			a.metrics.Observe("export", start, 0, err)
			return err
		}
		records = append(records, rs...)
	}
	err = codec.Encode(w, records)
	a.metrics.Observe("export", start, len(records), err)
	if err != nil {
		return err
	}
	a.logger.Debug("Records exported.", "format", codec.Name(), "records", len(records))
	return nil
}
