package calico

import (
	"fmt"
	"slices"
	"sync"
)

var (
	registry   = make(map[Format]Encoder)
	defaults   = make(map[Format]Encoder)
	registryMu sync.RWMutex
)

// Register installs enc as the codec for f, replacing any previous one.
// Codec packages register their default configuration from init; callers
// may re-register a differently configured instance.
func Register(f Format, enc Encoder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := defaults[f]; !ok {
		defaults[f] = enc
	}
	registry[f] = enc
}

// Lookup returns the encoder registered for f.
func Lookup(f Format) (Encoder, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	enc, ok := registry[f]
	if !ok {
		return nil, fmt.Errorf("%w: no codec registered for %q", ErrUnsupportedFormat, f)
	}
	return enc, nil
}

// LookupDecoder returns the decoder registered for f. Write-only formats
// fail with ErrUnsupportedFormat.
func LookupDecoder(f Format) (Decoder, error) {
	enc, err := Lookup(f)
	if err != nil {
		return nil, err
	}
	dec, ok := enc.(Decoder)
	if !ok {
		return nil, fmt.Errorf("%w: %q cannot be decoded", ErrUnsupportedFormat, f)
	}
	return dec, nil
}

// Formats returns the registered formats in sorted order.
func Formats() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Format, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Reset restores the codecs registered from init, dropping overrides.
// This is primarily useful for test isolation.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[Format]Encoder, len(defaults))
	for f, enc := range defaults {
		registry[f] = enc
	}
}
