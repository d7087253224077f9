package random

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
)

// StreamProvider hands out deterministically seeded streams by name.
//
// Derivation formula: masterSeed XOR fnv1a64(name), then mixed with the substream index.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type StreamProvider struct {
	seed    int64
	streams map[string]*Stream
}

// NewStreamProvider creates a provider for the given master seed.
func NewStreamProvider(seed int64) *StreamProvider {
	return &StreamProvider{seed: seed, streams: make(map[string]*Stream)}
}

// Seed returns the master seed.
func (p *StreamProvider) Seed() int64 { return p.seed }

// Stream returns the stream with the given name, creating it on first use.
// The same name always returns the same *Stream.
func (p *StreamProvider) Stream(name string) *Stream {
	if s, ok := p.streams[name]; ok {
		return s
	}
	s := newStream(name, p.seed^fnv1a64(name))
	p.streams[name] = s
	return s
}

// Names returns the names of the streams created so far, sorted.
func (p *StreamProvider) Names() []string {
	names := make([]string, 0, len(p.streams))
	for n := range p.streams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ResetStartStream resets every stream to its start.
func (p *StreamProvider) ResetStartStream() {
	for _, s := range p.streams {
		s.ResetStartStream()
	}
}

// AdvanceToNextSubstream advances every stream.
func (p *StreamProvider) AdvanceToNextSubstream() {
	for _, s := range p.streams {
		s.AdvanceToNextSubstream()
	}
}

// Stream is a reproducible sequence of uniform numbers split into substreams.
type Stream struct {
	name       string
	seed       int64
	substream  int64
	antithetic bool
	rng        *rand.Rand
}

func newStream(name string, seed int64) *Stream {
	s := &Stream{name: name, seed: seed}
	s.reseed()
	return s
}

// NewStream creates a stand-alone stream, mainly for tests.
func NewStream(name string, seed int64) *Stream { return newStream(name, seed) }

// Name returns the stream name.
func (s *Stream) Name() string { return s.name }

// Substream returns the current substream index, starting at 0.
func (s *Stream) Substream() int64 { return s.substream }

// SetAntithetic makes the stream return 1-u instead of u.
func (s *Stream) SetAntithetic(on bool) { s.antithetic = on }

// Antithetic reports whether the stream returns antithetic values.
func (s *Stream) Antithetic() bool { return s.antithetic }

// RandU01 returns a uniform number in the open interval (0, 1).
func (s *Stream) RandU01() float64 {
	u := s.rng.Float64()
	for u == 0 {
		u = s.rng.Float64()
	}
	if s.antithetic {
		return 1 - u
	}
	return u
}

// ResetStartStream returns to the start of substream 0.
func (s *Stream) ResetStartStream() {
	s.substream = 0
	s.reseed()
}

// ResetStartSubstream returns to the start of the current substream.
func (s *Stream) ResetStartSubstream() { s.reseed() }

// AdvanceToNextSubstream moves to the start of the next substream.
func (s *Stream) AdvanceToNextSubstream() {
	s.substream++
	s.reseed()
}

func (s *Stream) reseed() {
	s.rng = rand.New(rand.NewSource(int64(splitmix64(uint64(s.seed) + uint64(s.substream)*0x9e3779b97f4a7c15))))
}

func (s *Stream) String() string {
	return fmt.Sprintf("Stream(%s, substream=%d)", s.name, s.substream)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// splitmix64 scrambles substream seeds so that neighbouring indices give unrelated sequences.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
