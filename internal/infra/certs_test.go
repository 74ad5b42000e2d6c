package infra

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnsureCertificate_GeneratesAndReuses(t *testing.T) {
	dir := t.TempDir()

	cert, err := EnsureCertificate(dir)
	if err != nil {
		t.Fatalf("EnsureCertificate failed: %v", err)
	}
	if len(cert.Certificate) == 0 {
		t.Fatalf("Expected a certificate chain")
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("Failed to parse generated cert: %v", err)
	}
	if leaf.Subject.CommonName != certCommonName {
		t.Errorf("CN = %q, want %q", leaf.Subject.CommonName, certCommonName)
	}
	if years := leaf.NotAfter.Sub(leaf.NotBefore); years < 9*365*24*time.Hour {
		t.Errorf("Validity %s too short for a 10-year cert", years)
	}

	// Public-only file must contain exactly one CERTIFICATE block.
	pub, err := os.ReadFile(filepath.Join(dir, certPublicName))
	if err != nil {
		t.Fatalf("Public cert missing: %v", err)
	}
	block, rest := pem.Decode(pub)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("Public file is not a certificate PEM")
	}
	if len(rest) != 0 {
		t.Errorf("Public file must not contain key material")
	}

	// Second call reuses the same material instead of regenerating.
	again, err := EnsureCertificate(dir)
	if err != nil {
		t.Fatalf("Second EnsureCertificate failed: %v", err)
	}
	leaf2, err := x509.ParseCertificate(again.Certificate[0])
	if err != nil {
		t.Fatalf("Failed to parse reloaded cert: %v", err)
	}
	if leaf2.SerialNumber.Cmp(leaf.SerialNumber) != 0 {
		t.Errorf("Certificate was regenerated instead of reused")
	}
}
