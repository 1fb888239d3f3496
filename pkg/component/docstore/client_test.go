package docstore

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	stderrors "errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docstore-boot/pkg/environment"
	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

func buildEnv(t *testing.T, ov environment.Overrides) environment.Settings {
	t.Helper()
	s, err := environment.Build(environment.Defaults(), ov)
	require.NoError(t, err)
	return s
}

func writeCA(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "docstore-test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return path
}

func TestClientOptionsMapping(t *testing.T) {
	env := buildEnv(t, environment.Overrides{
		ConnectTimeout:        environment.Ptr(3 * time.Second),
		KeyValueTimeout:       environment.Ptr(9 * time.Second),
		MinConnections:        environment.Ptr(2),
		MaxConnections:        environment.Ptr(20),
		IdleConnectionTimeout: environment.Ptr(time.Minute),
	})

	opts, err := ClientOptions(ConnectionRequest{
		ConnectionString: "mongodb://db1:27017,db2:27017",
		Username:         "app",
		Password:         "secret",
		Environment:      env,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"db1:27017", "db2:27017"}, opts.Hosts)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
	assert.Equal(t, 3*time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, 9*time.Second, *opts.Timeout)
	assert.Equal(t, uint64(2), *opts.MinPoolSize)
	assert.Equal(t, uint64(20), *opts.MaxPoolSize)
	assert.Equal(t, time.Minute, *opts.MaxConnIdleTime)
	require.NotNil(t, opts.Auth)
	assert.Equal(t, "app", opts.Auth.Username)
	assert.Nil(t, opts.TLSConfig)
}

func TestClientOptionsDefaults(t *testing.T) {
	opts, err := ClientOptions(ConnectionRequest{
		ConnectionString: "mongodb://localhost:27017",
		Environment:      environment.Defaults(),
	})
	require.NoError(t, err)

	assert.Equal(t, 2500*time.Millisecond, *opts.Timeout)
	assert.Equal(t, uint64(12), *opts.MaxPoolSize)
	assert.Nil(t, opts.Auth)
}

func TestClientOptionsRejectsIncompleteRequests(t *testing.T) {
	_, err := ClientOptions(ConnectionRequest{Environment: environment.Defaults()})
	assert.True(t, stderrors.Is(err, autoerrors.ErrConfiguration))

	_, err = ClientOptions(ConnectionRequest{ConnectionString: "mongodb://localhost"})
	assert.True(t, stderrors.Is(err, autoerrors.ErrConfiguration))

	_, err = ClientOptions(ConnectionRequest{ConnectionString: "not-a-uri", Environment: environment.Defaults()})
	assert.True(t, stderrors.Is(err, autoerrors.ErrConnectionFailed))
}

func TestClientOptionsTLS(t *testing.T) {
	env := buildEnv(t, environment.Overrides{
		TLSEnabled:     environment.Ptr(true),
		TrustStorePath: environment.Ptr(writeCA(t)),
	})

	opts, err := ClientOptions(ConnectionRequest{ConnectionString: "mongodb://localhost", Environment: env})
	require.NoError(t, err)
	require.NotNil(t, opts.TLSConfig)
	assert.NotNil(t, opts.TLSConfig.RootCAs)
}

func TestClientOptionsTLSFailure(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))

	for name, path := range map[string]string{
		"missing file": filepath.Join(t.TempDir(), "absent.pem"),
		"no pem":       garbage,
	} {
		t.Run(name, func(t *testing.T) {
			env := buildEnv(t, environment.Overrides{
				TLSEnabled:     environment.Ptr(true),
				TrustStorePath: environment.Ptr(path),
			})

			_, err := ClientOptions(ConnectionRequest{ConnectionString: "mongodb://localhost", Environment: env})
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, autoerrors.ErrConnectionFailed))
			assert.Contains(t, err.Error(), "could not enable TLS")
		})
	}
}

func TestConnectIsLazy(t *testing.T) {
	env := buildEnv(t, environment.Overrides{
		ConnectTimeout:    environment.Ptr(200 * time.Millisecond),
		DisconnectTimeout: environment.Ptr(time.Second),
	})

	cluster, err := Connect(context.Background(), ConnectionRequest{
		ConnectionString: "mongodb://127.0.0.1:1",
		Environment:      env,
	})
	require.NoError(t, err)

	db := cluster.Bucket("app")
	assert.Equal(t, "app", db.Name())
	assert.Equal(t, "users", db.Collection("users").Name())
	assert.Same(t, cluster, db.Cluster())
	assert.Equal(t, env, cluster.Environment())

	assert.Error(t, cluster.Ping(context.Background()))

	require.NoError(t, cluster.Disconnect(context.Background()))
	require.NoError(t, cluster.Disconnect(context.Background()))
	assert.True(t, stderrors.Is(cluster.Ping(context.Background()), autoerrors.ErrNotConnected))
}
