// Package json encodes the JSON written by docstore-boot: cache entries, the
// condition report and redacted option dumps. It uses sonic where sonic has a
// JIT backend and encoding/json elsewhere.
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

// Encoder writes JSON values to a stream.
type Encoder interface {
	Encode(v interface{}) error
}

type api struct {
	marshal    func(v interface{}) ([]byte, error)
	unmarshal  func(data []byte, v interface{}) error
	newEncoder func(w io.Writer) Encoder
}

var impl = selectAPI(runtime.GOARCH)

func selectAPI(arch string) api {
	if arch == "amd64" || arch == "arm64" {
		cfg := sonic.ConfigStd
		return api{
			marshal:    cfg.Marshal,
			unmarshal:  cfg.Unmarshal,
			newEncoder: func(w io.Writer) Encoder { return cfg.NewEncoder(w) },
		}
	}
	return api{
		marshal:    stdjson.Marshal,
		unmarshal:  stdjson.Unmarshal,
		newEncoder: func(w io.Writer) Encoder { return stdjson.NewEncoder(w) },
	}
}

// Marshal encodes v. Map keys are sorted so that cache entries written for
// equal values are byte-identical.
func Marshal(v interface{}) ([]byte, error) {
	return impl.marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v interface{}) error {
	return impl.unmarshal(data, v)
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) Encoder {
	return impl.newEncoder(w)
}
