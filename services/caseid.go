package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	caseNumberMin  = 100000
	caseNumberSpan = 900000
)

// IDGenerator produces candidate case identifiers of the form PREFIX-YEAR-NNNNNN.
// Candidates are not checked for uniqueness here, see CaseManager.
type IDGenerator struct {
	prefix string
	now    func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewIDGenerator returns a generator for prefix seeded from the clock
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{
		prefix: prefix,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns a candidate identifier for the current year
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	n := caseNumberMin + g.rnd.Intn(caseNumberSpan)
	g.mu.Unlock()
	return fmt.Sprintf("%s-%d-%d", g.prefix, g.now().Year(), n)
}
