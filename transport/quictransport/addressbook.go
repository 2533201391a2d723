package quictransport

import (
	"sync"

	"github.com/meshvault/meshvault/keys"
)

// AddressBook resolves a peer's public key to a dialable network
// address. The core's peer identity (an Ed25519 public key) carries no
// address of its own — something outside this package's scope
// (discovery, a config file, a rendezvous service) has to populate one.
type AddressBook interface {
	Addr(peer keys.PublicKey) (string, bool)
}

// StaticAddressBook is the simplest AddressBook: an explicit, mutable
// peer-to-address map, suitable for tests and for a config-file-driven
// deployment.
type StaticAddressBook struct {
	mu   sync.RWMutex
	addr map[keys.PublicKey]string
}

// NewStaticAddressBook returns an empty StaticAddressBook.
func NewStaticAddressBook() *StaticAddressBook {
	return &StaticAddressBook{addr: make(map[keys.PublicKey]string)}
}

// Set records peer's address, replacing any previous entry.
func (b *StaticAddressBook) Set(peer keys.PublicKey, addr string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addr[peer] = addr
}

// Addr implements AddressBook.
func (b *StaticAddressBook) Addr(peer keys.PublicKey) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.addr[peer]
	return a, ok
}
