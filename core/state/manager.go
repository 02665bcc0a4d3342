package state

import (
	"encoding/binary"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"obsidian/core/types"
	"obsidian/crypto"
	"obsidian/storage"
)

// Manager persists protocol records in a key-value store. Every record is
// RLP-encoded through a stored* shadow struct and addressed by the keccak256
// hash of a fixed ASCII tag plus its identifying fields, so any
// content-addressed store works and no cross-key ordering is assumed.
//
// Writes land in a dirty overlay first. The node wraps each protocol
// operation in Commit-on-success / Discard-on-error, which provides the
// all-or-nothing failure atomicity the engines rely on: a rejected operation
// leaves nothing behind, even when it staged several records before failing.
type Manager struct {
	db    storage.Database
	dirty map[string][]byte
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:    db,
		dirty: make(map[string][]byte),
	}
}

// Commit flushes all staged writes to the underlying database in one atomic
// batch and clears the overlay. On error the overlay is kept intact and
// nothing has been persisted.
func (m *Manager) Commit() error {
	if len(m.dirty) == 0 {
		return nil
	}
	if err := m.db.WriteBatch(m.dirty); err != nil {
		return err
	}
	m.dirty = make(map[string][]byte)
	return nil
}

// Discard drops all staged writes.
func (m *Manager) Discard() {
	m.dirty = make(map[string][]byte)
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if value, ok := m.dirty[string(key)]; ok {
		return value, nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (m *Manager) put(key, value []byte) {
	m.dirty[string(key)] = value
}

func storageKey(prefix []byte, parts ...[]byte) []byte {
	buf := append([]byte(nil), prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// --- Accounts (token custody) ---

type storedAccount struct {
	Nonce   uint64
	Balance uint64
}

func accountKey(addr crypto.Address) []byte {
	return storageKey(accountPrefix, addr.Bytes())
}

// GetAccount loads the custody account for addr, or nil when the address has
// never held a balance.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	raw, err := m.get(accountKey(addr))
	if err != nil || raw == nil {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, err
	}
	return &types.Account{Nonce: stored.Nonce, Balance: stored.Balance}, nil
}

// PutAccount stages the custody account for addr.
func (m *Manager) PutAccount(addr crypto.Address, account *types.Account) error {
	if account == nil {
		return errors.New("state: nil account")
	}
	raw, err := rlp.EncodeToBytes(&storedAccount{Nonce: account.Nonce, Balance: account.Balance})
	if err != nil {
		return err
	}
	m.put(accountKey(addr), raw)
	return nil
}
