//go:build jsonv2

package xjson

// Sonic-backed fast path. Build with: go build -tags jsonv2
// Limited to Marshal/Unmarshal/Decoder/Encoder to keep parity with the
// std-path API in xjson_std.go.

import (
	"io"

	"github.com/bytedance/sonic"
)

// Marshal wraps sonic's Marshal.
func Marshal(v any) ([]byte, error) { return sonic.Marshal(v) }

// Unmarshal wraps sonic's Unmarshal.
func Unmarshal(data []byte, v any) error { return sonic.Unmarshal(data, v) }

// Decoder wraps sonic's streaming decoder.
type Decoder struct{ d sonic.Decoder }

func NewDecoder(r io.Reader) *Decoder { return &Decoder{d: *sonic.ConfigDefault.NewDecoder(r)} }
func (d *Decoder) More() bool         { return d.d.More() }
func (d *Decoder) Decode(v any) error { return d.d.Decode(v) }

// Encoder wraps sonic's streaming encoder.
type Encoder struct{ e sonic.Encoder }

func NewEncoder(w io.Writer) *Encoder { return &Encoder{e: *sonic.ConfigDefault.NewEncoder(w)} }
func (e *Encoder) Encode(v any) error { return e.e.Encode(v) }
