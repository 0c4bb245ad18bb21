package mokmanager

import (
	"crypto/sha1" //nolint:gosec // fingerprint display only, not a trust decision
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"

	humanize "github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	strftime "github.com/ncruces/go-strftime"
)

// certCacheSize bounds the inspector's parsed-certificate cache. The
// enroll screen re-renders the same few entries repeatedly while the
// operator pages back and forth before confirming, so a small LRU keyed by
// fingerprint avoids re-running asn1 parsing on every keystroke.
const certCacheSize = 64

// Inspector renders signature-list entries for operator review. It owns a
// cache of previously parsed certificates; the zero value is not usable,
// use NewInspector.
type Inspector struct {
	certs *lru.Cache[string, *x509.Certificate]
}

// NewInspector creates an Inspector with its certificate cache ready.
func NewInspector() *Inspector {
	c, _ := lru.New[string, *x509.Certificate](certCacheSize) // only errs on size<=0
	return &Inspector{certs: c}
}

// Render emits a human-readable block describing e to w. Render never
// returns an error for a malformed certificate: it writes a one-line
// notice instead, matching the codec's own skip-don't-fail posture.
func (ins *Inspector) Render(w io.Writer, e Entry) error {
	switch e.Type {
	case EntryTypeHash:
		return ins.renderHash(w, e.Payload)
	default:
		return ins.renderCert(w, e.Payload)
	}
}

func (ins *Inspector) renderCert(w io.Writer, der []byte) error {
	fp := sha1.Sum(der)
	key := hex.EncodeToString(fp[:])

	cert, ok := ins.certs.Get(key)
	if !ok {
		parsed, err := x509.ParseCertificate(der)
		if err != nil {
			return ins.renderUnparseable(w, der)
		}
		cert = parsed
		ins.certs.Add(key, cert)
	}

	if _, err := fmt.Fprintf(w, "  Serial Number:\n    %s\n", formatSerial(cert.SerialNumber)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Issuer:\n    %s\n", cert.Issuer.String()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Subject:\n    %s\n", cert.Subject.String()); err != nil {
		return err
	}
	notBefore, err := formatX509Time(cert.NotBefore)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Validity from:\n    %s (%s)\n", notBefore, humanize.Time(cert.NotBefore)); err != nil {
		return err
	}
	notAfter, err := formatX509Time(cert.NotAfter)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  Validity till:\n    %s (%s)\n", notAfter, humanize.Time(cert.NotAfter)); err != nil {
		return err
	}
	return ins.renderFingerprint(w, fp)
}

func (ins *Inspector) renderUnparseable(w io.Writer, der []byte) error {
	n := len(der)
	if n > 4 {
		n = 4
	}
	_, err := fmt.Fprintf(w, "  Not a valid X509 certificate: %x\n", der[:n])
	return err
}

func (ins *Inspector) renderHash(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "SHA256 hash:\n   %s\n", wrapHex(payload, 10)); err != nil {
		return err
	}
	fp := sha1.Sum(payload) //nolint:gosec // identity display, not a verification step
	return ins.renderFingerprint(w, fp)
}

func (ins *Inspector) renderFingerprint(w io.Writer, fp [20]byte) error {
	_, err := fmt.Fprintf(w, "  Fingerprint (SHA1):\n    %s\n", wrapHex(fp[:], 10))
	return err
}

// formatSerial renders a certificate serial number as colon-separated hex
// bytes of its big-endian magnitude, each byte as two hex digits so a
// byte's leading zero digit is kept. The zero sign byte DER places before a
// magnitude whose top bit is set is not shown.
func formatSerial(serial *big.Int) string {
	b := serial.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	out := make([]byte, 0, len(b)*3-1)
	for i, v := range b {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hex.EncodeToString([]byte{v})...)
	}
	return string(out)
}

// wrapHex renders b as space-separated hex pairs, inserting a newline and
// re-indenting every perLine bytes.
func wrapHex(b []byte, perLine int) string {
	var out []byte
	for i, v := range b {
		if i > 0 {
			if i%perLine == 0 {
				out = append(out, "\n    "...)
			} else {
				out = append(out, ' ')
			}
		}
		out = append(out, hex.EncodeToString([]byte{v})...)
	}
	return string(out)
}

// formatX509Time renders t in the classic OpenSSL certificate-dump style,
// "%b %d %H:%M:%S[.fff] %Y GMT", with the fractional-second component
// included only when one survived parsing. Certificates are DER-encoded,
// whose ASN.1 time values always end in the "Z" UTC designator, so the
// GMT suffix is unconditional here.
func formatX509Time(t time.Time) (string, error) {
	t = t.UTC()
	base, err := strftime.Format("%b %d %H:%M:%S", t)
	if err != nil {
		return "", fmt.Errorf("format certificate time: %w", err)
	}
	if ns := t.Nanosecond(); ns != 0 {
		base += fmt.Sprintf(".%03d", ns/1_000_000)
	}
	year, err := strftime.Format(" %Y", t)
	if err != nil {
		return "", fmt.Errorf("format certificate year: %w", err)
	}
	return base + year + " GMT", nil
}
