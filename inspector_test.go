package mokmanager

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"strings"
	"testing"
	"time"
)

func selfSignedDER(t *testing.T) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(0x00ab10),
		Subject:      pkix.Name{CommonName: "mok test leaf"},
		Issuer:       pkix.Name{CommonName: "mok test leaf"},
		NotBefore:    time.Date(2020, time.March, 1, 12, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2040, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return der
}

func TestRenderCertificate(t *testing.T) {
	ins := NewInspector()
	var buf bytes.Buffer
	der := selfSignedDER(t)
	if err := ins.Render(&buf, Entry{Type: EntryTypeCert, Payload: der}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Serial Number:", "Issuer:", "Subject:", "Validity from:", "Validity till:", "Fingerprint (SHA1):", "mok test leaf"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCertificateCachesParse(t *testing.T) {
	ins := NewInspector()
	der := selfSignedDER(t)
	var first, second bytes.Buffer
	if err := ins.Render(&first, Entry{Type: EntryTypeCert, Payload: der}); err != nil {
		t.Fatalf("first render: %v", err)
	}
	if err := ins.Render(&second, Entry{Type: EntryTypeCert, Payload: der}); err != nil {
		t.Fatalf("second render: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("cached render differs from first render")
	}
}

func TestRenderUnparseableCertificate(t *testing.T) {
	ins := NewInspector()
	var buf bytes.Buffer
	garbage := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02}
	if err := ins.Render(&buf, Entry{Type: EntryTypeCert, Payload: garbage}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "not a valid X509 certificate") && !strings.Contains(strings.ToLower(buf.String()), "not a valid x509 certificate") {
		t.Errorf("expected unparseable notice, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "deadbeef") {
		t.Errorf("expected first 4 bytes in notice, got: %s", buf.String())
	}
}

func TestRenderHash(t *testing.T) {
	ins := NewInspector()
	var buf bytes.Buffer
	var sum [32]byte
	for i := range sum {
		sum[i] = byte(i + 1)
	}
	if err := ins.Render(&buf, Entry{Type: EntryTypeHash, Payload: sum[:]}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "SHA256 hash:") {
		t.Errorf("missing SHA256 hash header: %s", out)
	}
	if !strings.Contains(out, "Fingerprint (SHA1):") {
		t.Errorf("missing fingerprint header: %s", out)
	}
}

func TestFormatSerialNoLeadingByteStripped(t *testing.T) {
	got := formatSerial(big.NewInt(0xab10))
	if got != "ab:10" {
		t.Errorf("formatSerial = %q, want %q", got, "ab:10")
	}
}

func TestFormatX509TimeIncludesGMT(t *testing.T) {
	got, err := formatX509Time(time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.HasSuffix(got, " GMT") {
		t.Errorf("formatX509Time = %q, want GMT suffix", got)
	}
	if !strings.Contains(got, "1999") {
		t.Errorf("formatX509Time = %q, want 4-digit year", got)
	}
}
