package mokmanager

import (
	"crypto/x509"
	"fmt"
	"io/fs"

	humanize "github.com/dustin/go-humanize"
)

// consoleWriter adapts a Console's Printf into an io.Writer so the
// Inspector can render directly to the operator's screen.
type consoleWriter struct{ console Console }

func (w consoleWriter) Write(p []byte) (int, error) {
	w.console.Printf("%s", string(p))
	return len(p), nil
}

// EnrollScreen drives the numeric review loop and the y/n commit gate
// shared by every path that stages a request for enrollment: a pending MOK
// review, or a freshly-built one-entry request from the file enrollment
// pipeline. Every commit it drives is logged to audit, if one is attached.
type EnrollScreen struct {
	console   Console
	inspector *Inspector
	commit    *CommitLayer
	audit     *AuditStore // optional; nil disables audit recording
}

// NewEnrollScreen builds an EnrollScreen. audit may be nil.
func NewEnrollScreen(console Console, inspector *Inspector, commit *CommitLayer, audit *AuditStore) *EnrollScreen {
	return &EnrollScreen{console: console, inspector: inspector, commit: commit, audit: audit}
}

// ReviewAndCommit presents requestBytes' entries for numbered review (key
// index 1..N, or 0 to proceed) and, once the operator confirms with 'y',
// commits via requireAuth. A request with no well-formed entries is
// reported as "No keys" and the screen returns without a commit prompt at
// all. action labels the audit event this call produces.
func (s *EnrollScreen) ReviewAndCommit(action string, requestBytes []byte, requireAuth bool) error {
	entries := Entries(Iterate(requestBytes))
	if len(entries) == 0 {
		s.console.Printf("No keys\n")
		s.console.Pause("")
		s.recordAudit(action, 0, "no-keys")
		return nil
	}

	s.console.Printf("%d key(s) staged for enrollment\n", len(entries))
	for {
		s.console.Printf("[1-%d] view a key, [0] continue: ", len(entries))
		n, ok, err := s.console.ReadNumber()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if n == 0 {
			break
		}
		if n < 1 || n > len(entries) {
			continue
		}
		if err := s.inspector.Render(consoleWriter{s.console}, entries[n-1]); err != nil {
			return err
		}
	}

	s.console.Printf("Enroll these changes? (y/n): ")
	yes, err := s.console.ReadYesNo()
	if err != nil {
		return err
	}
	s.console.Printf("\n")
	if !yes {
		s.recordAudit(action, len(entries), "declined")
		return nil
	}

	err = s.commit.Commit(requestBytes, requireAuth)
	if err != nil {
		s.console.Printf("commit failed: %v\n", err)
	}
	s.recordAudit(action, len(entries), outcomeOf(err))
	return err
}

// DeleteAll prompts once for confirmation, then commits a full clear of
// MokList when the operator answers 'y'. action labels the audit event
// this call produces.
func (s *EnrollScreen) DeleteAll(action string, requireAuth bool) error {
	s.console.Printf("Delete all enrolled keys? (y/n): ")
	yes, err := s.console.ReadYesNo()
	if err != nil {
		return err
	}
	s.console.Printf("\n")
	if !yes {
		s.recordAudit(action, 0, "declined")
		return nil
	}

	err = s.commit.Commit(nil, requireAuth)
	if err != nil {
		s.console.Printf("commit failed: %v\n", err)
	}
	s.recordAudit(action, 0, outcomeOf(err))
	return err
}

func (s *EnrollScreen) recordAudit(action string, entryCount int, result string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(action, entryCount, result)
}

func outcomeOf(err error) string {
	if err != nil {
		return err.Error()
	}
	return "committed"
}

// FileEnrollPipeline walks the attached filesystems to build a one-entry
// request from a certificate file or an executable image, then hands it to
// an EnrollScreen.
type FileEnrollPipeline struct {
	console  Console
	volumes  FileSystemProvider
	shimLock ShimLockProtocol
	enroll   *EnrollScreen
}

// NewFileEnrollPipeline builds a FileEnrollPipeline.
func NewFileEnrollPipeline(console Console, volumes FileSystemProvider, shimLock ShimLockProtocol, enroll *EnrollScreen) *FileEnrollPipeline {
	return &FileEnrollPipeline{console: console, volumes: volumes, shimLock: shimLock, enroll: enroll}
}

// Run browses every attached filesystem; selecting a file feeds it through
// the certificate sub-pipeline (wantHash=false) or the hash sub-pipeline
// (wantHash=true).
func (p *FileEnrollPipeline) Run(wantHash bool) error {
	volumes, err := p.volumes.Volumes()
	if err != nil {
		p.console.Printf("enumerate filesystems: %v\n", err)
		p.console.Pause("")
		return nil
	}

	items := []MenuItem{{Label: "Exit", Action: nil}}
	for _, v := range volumes {
		v := v
		items = append(items, MenuItem{
			Label: v.Label,
			Color: ColorWhite,
			Action: func() error {
				return p.browseDir(v.FS, ".", wantHash, true)
			},
		})
	}

	m := NewMenu(p.console, items)
	_, err = m.Run(0)
	return err
}

// browseDir lists dir's children as a menu: a leading "Return to filesystem
// list" (at the volume root) or ".." row, directories in yellow that
// recurse, and files in white — annotated with a human-readable size —
// that activate the enrollment sub-pipeline.
func (p *FileEnrollPipeline) browseDir(fsys fs.FS, dir string, wantHash bool, isRoot bool) error {
	entries, err := readDir(fsys, dir)
	if err != nil {
		p.console.Printf("%v\n", err)
		p.console.Pause("")
		return nil
	}

	backLabel := ".."
	if isRoot {
		backLabel = "Return to filesystem list"
	}
	items := []MenuItem{{Label: backLabel, Action: nil}}
	for _, e := range entries {
		e := e
		full := joinPath(dir, e.name)
		if e.isDir {
			items = append(items, MenuItem{
				Label: e.name,
				Color: ColorYellow,
				Action: func() error {
					return p.browseDir(fsys, full, wantHash, false)
				},
			})
			continue
		}
		items = append(items, MenuItem{
			Label: fmt.Sprintf("%s (%s)", e.name, humanize.Bytes(uint64(e.size))),
			Color: ColorWhite,
			Action: func() error {
				return p.handleFile(fsys, full, wantHash)
			},
		})
	}

	m := NewMenu(p.console, items)
	_, err = m.Run(0)
	return err
}

// handleFile reads path and runs it through the certificate or hash
// sub-pipeline, then hands the resulting one-entry request to the enroll
// screen with require_auth=false, since no authenticator digest was
// pre-shared for a request originating on this boot.
func (p *FileEnrollPipeline) handleFile(fsys fs.FS, path string, wantHash bool) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		p.console.Printf("read %s: %v\n", path, err)
		p.console.Pause("")
		return nil
	}

	var requestBytes []byte
	action := "enroll-disk-cert"
	if wantHash {
		action = "enroll-disk-hash"
		ctx, err := p.shimLock.Context(data)
		if err != nil {
			p.console.Printf("not a recognized PE/COFF image\n")
			p.console.Pause("")
			return nil
		}
		sum256, _, err := p.shimLock.Hash(ctx)
		if err != nil {
			p.console.Printf("hash image: %v\n", err)
			p.console.Pause("")
			return nil
		}
		requestBytes = EncodeHash(sum256, ShimLockGUID)
	} else {
		if _, err := x509.ParseCertificate(data); err != nil {
			p.console.Printf("not a valid X509 certificate: %v\n", err)
			p.console.Pause("")
			return nil
		}
		requestBytes = EncodeCert(data, ShimLockGUID)
	}

	if err := p.enroll.ReviewAndCommit(action, requestBytes, false); err != nil {
		return fmt.Errorf("enroll %s: %w", path, err)
	}
	return nil
}
