package docstore

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/kart-io/docstore-boot/pkg/environment"
)

// loadTLSConfig trusts the certificates of a PEM bundle. The trust store
// password is not used for PEM files.
func loadTLSConfig(t environment.TLS) (*tls.Config, error) {
	if t.TrustStorePath == "" {
		return nil, fmt.Errorf("no trust store configured")
	}

	data, err := os.ReadFile(t.TrustStorePath)
	if err != nil {
		return nil, fmt.Errorf("read trust store: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("trust store %s contains no PEM certificates", t.TrustStorePath)
	}

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
