package filter

import "github.com/robert-malhotra/h5bind/internal/message"

// shuffle groups byte k of every element together.
type shuffle struct {
	size int
}

func newShuffle(values []uint32) shuffle {
	if len(values) > 0 && values[0] > 0 {
		return shuffle{size: int(values[0])}
	}
	return shuffle{size: 1}
}

func (shuffle) ID() uint16 { return message.FilterShuffle }

func (f shuffle) Encode(in []byte) ([]byte, error) {
	n := len(in) / f.size
	if f.size <= 1 || n <= 1 {
		return in, nil
	}
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for k := 0; k < f.size; k++ {
			out[k*n+i] = in[i*f.size+k]
		}
	}
	// Trailing bytes that do not fill an element are left in place.
	copy(out[n*f.size:], in[n*f.size:])
	return out, nil
}

func (f shuffle) Decode(in []byte) ([]byte, error) {
	n := len(in) / f.size
	if f.size <= 1 || n <= 1 {
		return in, nil
	}
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for k := 0; k < f.size; k++ {
			out[i*f.size+k] = in[k*n+i]
		}
	}
	copy(out[n*f.size:], in[n*f.size:])
	return out, nil
}
