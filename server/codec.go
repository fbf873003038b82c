package server

import (
	"connectrpc.com/connect"

	"github.com/chazu/classrun/pkg/wire"
)

// cborCodec carries the plain Go message structs over Connect as CBOR.
type cborCodec struct{}

var _ connect.Codec = cborCodec{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(msg any) ([]byte, error) {
	return wire.Marshal(msg)
}

func (cborCodec) Unmarshal(data []byte, msg any) error {
	return wire.Unmarshal(data, msg)
}
