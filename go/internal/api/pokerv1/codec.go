package pokerv1

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// JSONCodec carries the plain Go messages of this package over Connect with
// content type application/json. It replaces connect's protojson codec, which
// only accepts protobuf messages.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSONCodec is the option every handler and client in this package is built with.
func WithJSONCodec() connect.Option {
	return connect.WithCodec(JSONCodec{})
}
