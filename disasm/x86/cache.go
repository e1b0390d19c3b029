// Package x86 implements the x86-64 decode cache and instruction-analysis
// oracle consumed by the CFG builder (spec.md §4.C, §6), built atop
// golang.org/x/arch/x86/x86asm.
package x86

import (
	"bytes"
	"log"
	"os"
	"sort"

	"github.com/mewkiz/pkg/term"
	"golang.org/x/arch/x86/x86asm"
)

var (
	// dbg is a logger which logs debug messages with "x86:" prefix to
	// standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("x86:")+" ", 0)
	// warn is a logger which logs warning messages with "warning:" prefix to
	// standard error.
	warn = log.New(os.Stderr, term.RedBold("warning:")+" ", 0)
)

const (
	// uniqueThreshold is the TempValues size that triggers uniquing.
	uniqueThreshold = 5000
	// keepRuns is the number of most-frequent raw-byte runs retained by
	// uniquing.
	keepRuns = 2000
)

// cacheEntry is a (raw_bytes, instruction) pair.
type cacheEntry struct {
	raw  []byte
	inst x86asm.Inst
}

// tempKey is an accumulated (raw_bytes, value_index) pair pending uniquing.
type tempKey struct {
	raw   []byte
	value int
}

// Cache is a frequency-biased cache of raw-byte-sequence to decoded
// instruction, amortizing decoder cost across a binary (spec.md §4.C).
//
// Single-threaded; not safe for concurrent use without external
// synchronization (spec.md §5).
type Cache struct {
	tempKeys   []tempKey
	tempValues []x86asm.Inst

	cached                []cacheEntry // sorted by raw
	longestCachedRawBytes int

	// Translated counts cache misses that the decoder decoded successfully.
	Translated int
	// Uniqued counts cache hits.
	Uniqued int
}

// NewCache returns an empty decode cache.
func NewCache() *Cache {
	return &Cache{}
}

// FindCachedInstruction looks up the instruction whose raw bytes are a
// prefix of data, per spec.md §4.C's lookup algorithm. It returns the
// matched instruction and the number of bytes it consumed.
func (c *Cache) FindCachedInstruction(data []byte) (x86asm.Inst, int, bool) {
	if c.longestCachedRawBytes == 0 || len(c.cached) == 0 {
		return x86asm.Inst{}, 0, false
	}
	window := data
	if len(window) > c.longestCachedRawBytes {
		window = window[:c.longestCachedRawBytes]
	}
	// Find the greatest entry whose raw bytes are <= window.
	i := sort.Search(len(c.cached), func(i int) bool {
		return bytes.Compare(c.cached[i].raw, window) > 0
	})
	if i == 0 {
		return x86asm.Inst{}, 0, false
	}
	cand := c.cached[i-1]
	if !bytes.HasPrefix(window, cand.raw) {
		return x86asm.Inst{}, 0, false
	}
	return cand.inst, len(cand.raw), true
}

// AddTempInstruction records a freshly decoded instruction and its exact raw
// byte encoding, triggering uniquing once the accumulated temp values exceed
// uniqueThreshold.
func (c *Cache) AddTempInstruction(raw []byte, inst x86asm.Inst) {
	cp := append([]byte(nil), raw...)
	c.tempKeys = append(c.tempKeys, tempKey{raw: cp, value: len(c.tempValues)})
	c.tempValues = append(c.tempValues, inst)
	if len(c.tempValues) > uniqueThreshold {
		c.unique()
	}
}

// unique rebuilds Cached from the accumulated TempKeys/TempValues plus the
// previously cached entries, keeping the keepRuns most frequent raw-byte
// sequences, per spec.md §4.C's uniquing algorithm.
func (c *Cache) unique() {
	// Seed with existing cached entries so repeated uniquing does not forget
	// previously hot sequences.
	for _, e := range c.cached {
		c.tempKeys = append(c.tempKeys, tempKey{raw: e.raw, value: len(c.tempValues)})
		c.tempValues = append(c.tempValues, e.inst)
	}

	sort.Slice(c.tempKeys, func(i, j int) bool {
		return bytes.Compare(c.tempKeys[i].raw, c.tempKeys[j].raw) < 0
	})

	type run struct {
		raw   []byte
		value int
		count int
	}
	var runs []run
	for i := 0; i < len(c.tempKeys); {
		j := i + 1
		for j < len(c.tempKeys) && bytes.Equal(c.tempKeys[j].raw, c.tempKeys[i].raw) {
			j++
		}
		runs = append(runs, run{raw: c.tempKeys[i].raw, value: c.tempKeys[i].value, count: j - i})
		i = j
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].count > runs[j].count })
	if len(runs) > keepRuns {
		runs = runs[:keepRuns]
	}

	cached := make([]cacheEntry, len(runs))
	longest := 0
	for i, r := range runs {
		cached[i] = cacheEntry{raw: r.raw, inst: c.tempValues[r.value]}
		if len(r.raw) > longest {
			longest = len(r.raw)
		}
	}
	sort.Slice(cached, func(i, j int) bool {
		return bytes.Compare(cached[i].raw, cached[j].raw) < 0
	})

	c.cached = cached
	c.longestCachedRawBytes = longest
	c.tempKeys = nil
	c.tempValues = nil
}
