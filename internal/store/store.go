// Package store persists small per-chain facts across runs: the
// deployed helper contract address, cached vault ids, and the last
// in-flight transfer transaction.
package store

import "context"

// Well-known purposes.
const (
	PurposeHelperAddress    = "helper-address"
	PurposeInflightTransfer = "inflight-transfer"
	PurposeVaultPrefix      = "vault:"
)

// Store is a key/value cache keyed by (chain, purpose).
type Store interface {
	Get(ctx context.Context, chainID uint64, purpose string) (string, bool, error)
	Put(ctx context.Context, chainID uint64, purpose, value string) error
	Delete(ctx context.Context, chainID uint64, purpose string) error
}

// Memory is an in-process Store for tests.
type Memory struct {
	data map[string]string
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, chainID uint64, purpose string) (string, bool, error) {
	value, ok := m.data[memKey(chainID, purpose)]
	return value, ok, nil
}

func (m *Memory) Put(_ context.Context, chainID uint64, purpose, value string) error {
	m.data[memKey(chainID, purpose)] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, chainID uint64, purpose string) error {
	delete(m.data, memKey(chainID, purpose))
	return nil
}

func memKey(chainID uint64, purpose string) string {
	return key(chainID, purpose)
}
