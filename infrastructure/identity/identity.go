// Package identity mints identifiers for questionnaires, questions and
// exported records.
package identity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// UUIDProvider mints random version 4 UUIDs.
type UUIDProvider struct{}

// NewUUIDProvider creates a UUID provider
func NewUUIDProvider() *UUIDProvider {
	return &UUIDProvider{}
}

// NewID returns a fresh UUID string
func (UUIDProvider) NewID() string {
	return uuid.New().String()
}

// SequenceProvider mints prefix-1, prefix-2, ... and is safe for
// concurrent use. It keeps exports reproducible in tests and the CLI.
type SequenceProvider struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceProvider creates a sequence starting at 1
func NewSequenceProvider(prefix string) *SequenceProvider {
	return &SequenceProvider{prefix: prefix, next: 1}
}

// NewID returns the next identifier in the sequence
func (p *SequenceProvider) NewID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := fmt.Sprintf("%s-%d", p.prefix, p.next)
	p.next++
	return id
}

// Reset restarts the sequence at 1
func (p *SequenceProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = 1
}
