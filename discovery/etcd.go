package discovery

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"

	"kvpool/endpoint"
)

// EtcdSource resolves and watches a key prefix in etcd, the same shape
// mini-rpc's EtcdRegistry uses for service instances, but read-only: this
// module never writes membership records (the backend deployment's job,
// same as spec.md's wire codec being out of core scope).
//
//	Key:   /kvpool/endpoints/{cluster}/{addr}
//	Value: JSON-encoded endpoint.Endpoint
type EtcdSource struct {
	client  *clientv3.Client
	cluster string
}

// NewEtcdSource connects to the given etcd endpoints and scopes Resolve/Watch
// to the given cluster name.
func NewEtcdSource(etcdEndpoints []string, cluster string) (*EtcdSource, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: etcdEndpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdSource{client: c, cluster: cluster}, nil
}

func (s *EtcdSource) prefix() string {
	return "/kvpool/endpoints/" + s.cluster + "/"
}

// Resolve fetches every endpoint currently registered under this cluster's
// prefix. Malformed values are skipped (mirrors mini-rpc's Discover).
func (s *EtcdSource) Resolve(ctx context.Context) ([]endpoint.Endpoint, error) {
	resp, err := s.client.Get(ctx, s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	eps := make([]endpoint.Endpoint, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var ep endpoint.Endpoint
		if err := json.Unmarshal(kv.Value, &ep); err != nil {
			continue
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

// Watch monitors the cluster's key prefix and emits the full, re-fetched
// endpoint set on every change — simpler than diffing individual watch
// events, same tradeoff mini-rpc's registry.Watch makes.
func (s *EtcdSource) Watch(ctx context.Context) <-chan []endpoint.Endpoint {
	out := make(chan []endpoint.Endpoint, 1)

	go func() {
		defer close(out)
		watchChan := s.client.Watch(ctx, s.prefix(), clientv3.WithPrefix())
		for range watchChan {
			eps, err := s.Resolve(ctx)
			if err != nil {
				continue
			}
			select {
			case out <- eps:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Close releases the underlying etcd client.
func (s *EtcdSource) Close() error {
	return s.client.Close()
}
