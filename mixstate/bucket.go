package mixstate

import (
	"encoding/binary"

	"github.com/meck93/mixnet/codec"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/errs"
)

// encodeCiphertexts concatenates a 32-bit element count with each
// ciphertext's own self-delimiting codec.EncodeCiphertext encoding, so a
// CipherBucket round can be stored as a single KV value while every
// ciphertext inside it keeps the bit-exact §6 wire form.
func encodeCiphertexts(cts []elgamal.Ciphertext) []byte {
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(cts)))
	out := append([]byte{}, countBuf[:]...)
	for _, c := range cts {
		out = append(out, codec.EncodeCiphertext(c)...)
	}
	return out
}

func decodeCiphertexts(buf []byte) ([]elgamal.Ciphertext, error) {
	if len(buf) < 4 {
		return nil, errs.ErrParseError
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	out := make([]elgamal.Ciphertext, n)
	for i := range out {
		c, rest, err := codec.DecodeCiphertext(buf)
		if err != nil {
			return nil, err
		}
		out[i] = c
		buf = rest
	}
	return out, nil
}
