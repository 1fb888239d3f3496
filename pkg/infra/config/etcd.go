package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	etcdopts "github.com/kart-io/docstore-boot/pkg/options/etcd"
)

// EtcdSource reads properties stored as individual keys under a prefix:
// <prefix>docstore/env/timeouts/key-value = 9s becomes
// docstore.env.timeouts.key-value.
type EtcdSource struct {
	kv      clientv3.KV
	prefix  string
	timeout time.Duration
	client  *clientv3.Client
}

// NewEtcdSource dials etcd with the given options.
func NewEtcdSource(opts *etcdopts.Options) (*EtcdSource, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		Username:    opts.Username,
		Password:    opts.Password,
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	s := NewEtcdSourceFromKV(cli, opts.Prefix, opts.RequestTimeout)
	s.client = cli
	return s, nil
}

// NewEtcdSourceFromKV reads through an existing KV.
func NewEtcdSourceFromKV(kv clientv3.KV, prefix string, timeout time.Duration) *EtcdSource {
	return &EtcdSource{kv: kv, prefix: prefix, timeout: timeout}
}

// Name implements Source.
func (s *EtcdSource) Name() string {
	return "etcd"
}

// Read implements Source.
func (s *EtcdSource) Read(ctx context.Context) (map[string]interface{}, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.kv.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	props := make(map[string]interface{}, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		key := strings.Trim(strings.TrimPrefix(string(kv.Key), s.prefix), "/")
		if key == "" {
			continue
		}
		props[strings.ReplaceAll(key, "/", ".")] = string(kv.Value)
	}
	return props, nil
}

// Close releases the client created by NewEtcdSource.
func (s *EtcdSource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
