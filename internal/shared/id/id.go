// Package id provides typed ULID identifiers for shell sessions and the
// child processes they drive.
//
// IDs are prefixed (sess_*, proc_*) so log lines from the session buffer and
// the process bridge can be told apart at a glance, and ULIDs keep them
// sortable by creation time.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one session buffer.
type SessionID string

// BridgeID identifies one spawned child process and its stream readers.
type BridgeID string

const (
	SessionPrefix = "sess"
	BridgePrefix  = "proc"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// mostly for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewBridgeID generates a new bridge ID
func NewBridgeID() BridgeID {
	return BridgeID(Default().GenerateWithPrefix(BridgePrefix))
}

func (id SessionID) String() string { return string(id) }
func (id BridgeID) String() string  { return string(id) }

// Timestamp extracts the creation time from a prefixed ID.
func Timestamp(prefixed string) (time.Time, error) {
	_, raw, ok := strings.Cut(prefixed, "_")
	if !ok {
		raw = prefixed
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse id %q: %w", prefixed, err)
	}
	return ulid.Time(parsed.Time()), nil
}
