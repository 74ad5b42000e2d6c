package infra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

const (
	certBundleName = "tradepro.pem" // certificate + private key
	certPublicName = "tradepro.crt" // public certificate only
	certCommonName = "TradeProLocal"
)

// EnsureCertificate is the idempotent bootstrap step for the secure
// socket server: if no usable certificate exists under dir, generate a
// self-signed one (10-year validity) and persist both the private
// bundle and the public-only form. Subsequent starts reuse the files.
// It returns the loaded server certificate.
func EnsureCertificate(dir string) (tls.Certificate, error) {
	if err := EnsureDir(dir); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create cert dir: %w", err)
	}

	bundlePath := filepath.Join(dir, certBundleName)
	publicPath := filepath.Join(dir, certPublicName)

	if cert, err := tls.LoadX509KeyPair(bundlePath, bundlePath); err == nil {
		return cert, nil
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial: %w", err)
	}

	notBefore := time.Now().Add(-24 * time.Hour)
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: certCommonName},
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(10, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	// Private bundle holds both blocks; key material stays 0600.
	if err := os.WriteFile(bundlePath, append(certPEM, keyPEM...), 0600); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to write cert bundle: %w", err)
	}
	if err := os.WriteFile(publicPath, certPEM, 0644); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to write public cert: %w", err)
	}

	slog.Info("Generated self-signed certificate", "path", bundlePath)

	return tls.LoadX509KeyPair(bundlePath, bundlePath)
}
