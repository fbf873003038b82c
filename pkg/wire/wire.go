// Package wire holds the CBOR encoding shared by the class store and the
// RPC service.
package wire

import (
	"fmt"
	"sync"

	"github.com/chazu/classrun/pkg/classfile"
	"github.com/fxamacker/cbor/v2"
)

// encMode uses canonical options so equal values always encode to equal
// bytes.
var encMode = sync.OnceValues(func() (cbor.EncMode, error) {
	return cbor.CanonicalEncOptions().EncMode()
})

// Marshal serializes v to canonical CBOR.
func Marshal(v any) ([]byte, error) {
	em, err := encMode()
	if err != nil {
		return nil, fmt.Errorf("wire: CBOR enc mode: %w", err)
	}
	return em.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("wire: unmarshal: %w", err)
	}
	return nil
}

// MarshalSummary serializes a class summary.
func MarshalSummary(s *classfile.Summary) ([]byte, error) {
	return Marshal(s)
}

// UnmarshalSummary deserializes a class summary.
func UnmarshalSummary(data []byte) (*classfile.Summary, error) {
	var s classfile.Summary
	if err := Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return &s, nil
}
