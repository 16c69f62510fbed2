package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/copy"

	"github.com/notedx/notedx/internal/notes"
)

const stampLayout = "20060102_150405"

type Snapshot struct {
	Name  string
	Path  string
	Taken time.Time
	Files int
	Bytes int64
}

// snapshotTree copies root into dst, skipping other snapshots so that backups
// never nest.
func snapshotTree(ctx context.Context, root, dst string) (files int, bytes int64, err error) {
	root = filepath.Clean(root)
	opts := copy.Options{
		Skip: func(info os.FileInfo, src, _ string) (bool, error) {
			if err := ctx.Err(); err != nil {
				return true, err
			}
			if info.IsDir() {
				return filepath.Clean(src) != root && notes.IsBackupDir(info.Name()), nil
			}
			if info.Mode().IsRegular() {
				files++
				bytes += info.Size()
			}
			return false, nil
		},
		OnSymlink: func(string) copy.SymlinkAction { return copy.Skip },
	}

	if err := copy.Copy(root, dst, opts); err != nil {
		return 0, 0, fmt.Errorf("copy %q to %q: %w", root, dst, err)
	}
	return files, bytes, nil
}

// nextName returns backup_<stamp>, suffixed with _N when snapshots of the
// same second already exist. N is always above every existing suffix so the
// newest snapshot sorts last even after older ones were pruned.
func nextName(root string, t time.Time) string {
	base := notes.BackupPrefix + t.Format(stampLayout)

	entries, err := os.ReadDir(root)
	if err != nil {
		return base
	}

	seq := -1
	for _, e := range entries {
		name := e.Name()
		if name != base && !strings.HasPrefix(name, base+"_") {
			continue
		}
		_, n, ok := parseName(name)
		if ok && n > seq {
			seq = n
		}
	}

	if seq < 0 {
		return base
	}
	return base + "_" + strconv.Itoa(seq+1)
}

// listSnapshots returns snapshots under root, newest first.
func listSnapshots(root string) ([]Snapshot, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read notes root %q: %w", root, err)
	}

	type keyed struct {
		snap Snapshot
		seq  int
	}

	var found []keyed
	for _, e := range entries {
		if !e.IsDir() || !notes.IsBackupDir(e.Name()) {
			continue
		}
		taken, seq, ok := parseName(e.Name())
		if !ok {
			continue
		}
		found = append(found, keyed{
			snap: Snapshot{
				Name:  e.Name(),
				Path:  filepath.Join(root, e.Name()),
				Taken: taken,
			},
			seq: seq,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].snap.Taken.Equal(found[j].snap.Taken) {
			return found[i].snap.Taken.After(found[j].snap.Taken)
		}
		return found[i].seq > found[j].seq
	})

	snaps := make([]Snapshot, len(found))
	for i, k := range found {
		snaps[i] = k.snap
	}
	return snaps, nil
}

func parseName(name string) (time.Time, int, bool) {
	rest := strings.TrimPrefix(name, notes.BackupPrefix)
	if len(rest) < len(stampLayout) {
		return time.Time{}, 0, false
	}

	taken, err := time.ParseInLocation(stampLayout, rest[:len(stampLayout)], time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}

	suffix := rest[len(stampLayout):]
	if suffix == "" {
		return taken, 0, true
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(suffix, "_"))
	if err != nil || !strings.HasPrefix(suffix, "_") {
		return time.Time{}, 0, false
	}
	return taken, seq, true
}
