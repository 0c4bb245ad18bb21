package mokmanager

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
)

// Volume is one filesystem instance the operator can browse: a label
// combining device path and volume label for the menu row, and the fs.FS
// rooted at that volume — the idiomatic Go stand-in for "open the volume
// root" against the firmware's simple-file-system protocol.
type Volume struct {
	Label string
	FS    fs.FS
}

// FileSystemProvider enumerates every attached filesystem instance.
type FileSystemProvider interface {
	Volumes() ([]Volume, error)
}

// LocalFileSystemProvider implements FileSystemProvider over real
// directories on the host, standing in for the firmware's simple file
// system protocol when this module runs outside actual pre-boot firmware.
type LocalFileSystemProvider struct {
	roots map[string]string // label -> host directory
}

// NewLocalFileSystemProvider builds a provider exposing each of the given
// host directories as a volume, labelled dev+":"+the directory's base
// name, mirroring a firmware volume row's "device-path + volume-label"
// text.
func NewLocalFileSystemProvider(dirs ...string) *LocalFileSystemProvider {
	roots := make(map[string]string, len(dirs))
	for i, d := range dirs {
		roots[fmt.Sprintf("fs%d:%s", i, path.Base(d))] = d
	}
	return &LocalFileSystemProvider{roots: roots}
}

// Volumes implements FileSystemProvider.
func (p *LocalFileSystemProvider) Volumes() ([]Volume, error) {
	labels := make([]string, 0, len(p.roots))
	for label := range p.roots {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]Volume, 0, len(labels))
	for _, label := range labels {
		out = append(out, Volume{Label: label, FS: os.DirFS(p.roots[label])})
	}
	return out, nil
}

// dirEntry is one row of a directory listing, in read-order. fs.FS
// listings never contain "." or "..".
type dirEntry struct {
	name  string
	isDir bool
	size  int64
}

// readDir lists dir's immediate children. Read-order is whatever the
// underlying fs.FS returns; this module never relies on a particular
// order.
func readDir(fsys fs.FS, dir string) ([]dirEntry, error) {
	f, err := fsys.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}
	defer f.Close()
	rd, ok := f.(fs.ReadDirFile)
	if !ok {
		return nil, fmt.Errorf("read directory %q: not a directory", dir)
	}
	// fs.ReadDir would sort by name; reading the directory file directly
	// keeps the order the underlying fs.FS returns.
	entries, err := rd.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}
	out := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		var size int64
		if err == nil {
			size = info.Size()
		}
		out = append(out, dirEntry{name: e.Name(), isDir: e.IsDir(), size: size})
	}
	return out, nil
}

func joinPath(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return path.Join(dir, name)
}
