// Package api holds the wire types and gRPC service descriptors of the
// runtime client and storage services. Messages are encoded with msgpack
// rather than generated protobuf stubs.
package api

import (
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc/encoding"
)

const CodecName = "msgpack"

// Codec implements grpc/encoding.Codec using msgpack
type Codec struct{}

func (Codec) Marshal(v interface{}) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "msgpack marshal")
	}

	return b, nil
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "msgpack unmarshal")
	}

	return nil
}

func (Codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}
