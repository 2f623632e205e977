package cell

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborOnce sync.Once
	cborEnc  cbor.EncMode
	cborDec  cbor.DecMode
)

func cborModes() (cbor.EncMode, cbor.DecMode) {
	cborOnce.Do(func() {
		var err error
		cborEnc, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
		if err != nil {
			panic(err)
		}
		cborDec, err = cbor.DecOptions{}.DecMode()
		if err != nil {
			panic(err)
		}
	})
	return cborEnc, cborDec
}

type cellWire[T any] struct {
	Value  *T             `cbor:"1,keyasint,omitempty"`
	Class  Classification `cbor:"2,keyasint,omitempty"`
	Remark string         `cbor:"3,keyasint,omitempty"`
}

// MarshalCBOR implements cbor.Marshaler.
func (c Cell[T]) MarshalCBOR() ([]byte, error) {
	enc, _ := cborModes()
	w := cellWire[T]{Class: c.Class, Remark: c.Remark}
	if c.set {
		v := c.value
		w.Value = &v
	}
	return enc.Marshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (c *Cell[T]) UnmarshalCBOR(data []byte) error {
	_, dec := cborModes()
	var w cellWire[T]
	if err := dec.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Cell[T]{Meta: Meta{Class: w.Class, Remark: w.Remark}}
	if w.Value != nil {
		c.Set(*w.Value)
	}
	return nil
}
