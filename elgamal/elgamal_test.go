package elgamal

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/group"
)

// smallSystem mirrors the end-to-end scenario from the spec: p=23, g=2.
func smallSystem() *group.Params {
	return &group.Params{P: big.NewInt(23), G: big.NewInt(2), H: big.NewInt(3)}
}

func TestSmallSystemDecode(t *testing.T) {
	c := qt.New(t)
	params := smallSystem()
	x := big.NewInt(9)
	h := bignum.ModPow(params.G, x, params.P)

	ct := Encrypt(params, h, big.NewInt(2), big.NewInt(5))
	m, err := Decrypt(params, ct, x, 22)
	c.Assert(err, qt.IsNil)
	c.Assert(m, qt.Equals, uint64(2))
}

func largeSystem(t *testing.T) (*group.Params, *big.Int) {
	// A 512-bit safe-prime-shaped toy modulus is unnecessary for unit
	// tests; q only needs to be larger than any plaintext/randomness used.
	p, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	q := new(big.Int).Sub(p, big.NewInt(1))
	q.Div(q, big.NewInt(2))
	params := &group.Params{P: p, G: big.NewInt(4), H: big.NewInt(9)}
	return params, q
}

func TestHomomorphicAddToFive(t *testing.T) {
	c := qt.New(t)
	params, q := largeSystem(t)
	x, err := bignum.RandomRange(big.NewInt(1), q)
	c.Assert(err, qt.IsNil)
	h := bignum.ModPow(params.G, x, params.P)

	acc := Encrypt(params, h, big.NewInt(0), big.NewInt(1))
	for i := 0; i < 5; i++ {
		r, err := bignum.RandomRange(big.NewInt(1), q)
		c.Assert(err, qt.IsNil)
		one := Encrypt(params, h, big.NewInt(1), r)
		acc = Add(acc, one, params.P)
	}
	for i := 0; i < 5; i++ {
		r, err := bignum.RandomRange(big.NewInt(1), q)
		c.Assert(err, qt.IsNil)
		zero := Encrypt(params, h, big.NewInt(0), r)
		acc = Add(acc, zero, params.P)
	}

	m, err := Decrypt(params, acc, x, 20)
	c.Assert(err, qt.IsNil)
	c.Assert(m, qt.Equals, uint64(5))
}

func TestReEncryptionPreservesPlaintext(t *testing.T) {
	c := qt.New(t)
	params, q := largeSystem(t)
	x, err := bignum.RandomRange(big.NewInt(1), q)
	c.Assert(err, qt.IsNil)
	h := bignum.ModPow(params.G, x, params.P)

	r, _ := bignum.RandomRange(big.NewInt(1), q)
	ct := Encrypt(params, h, big.NewInt(7), r)

	r2, _ := bignum.RandomRange(big.NewInt(1), q)
	reenc := ReEncrypt(params, h, ct, r2)

	c.Assert(reenc.A.Cmp(ct.A) != 0 || reenc.B.Cmp(ct.B) != 0, qt.IsTrue)

	m, err := Decrypt(params, reenc, x, 20)
	c.Assert(err, qt.IsNil)
	c.Assert(m, qt.Equals, uint64(7))
}

func TestJointKeyAgreementAndPartialDecryption(t *testing.T) {
	c := qt.New(t)
	params, q := largeSystem(t)

	xB := big.NewInt(12345678)
	xC := big.NewInt(87654321)
	hB := bignum.ModPow(params.G, xB, params.P)
	hC := bignum.ModPow(params.G, xC, params.P)
	joint := bignum.ModMul(hB, hC, params.P)

	expected := bignum.ModPow(params.G, new(big.Int).Add(xB, xC), params.P)
	c.Assert(joint.Cmp(expected), qt.Equals, 0)

	for _, m := range []int64{0, 1, 2, 3} {
		r, _ := bignum.RandomRange(big.NewInt(1), q)
		ct := Encrypt(params, joint, big.NewInt(m), r)

		dB := PartialDecrypt(params, ct.A, xB)
		dC := PartialDecrypt(params, ct.A, xC)
		combined := CombinePartialDecryptions(params, []*big.Int{dB, dC})

		gm, err := RecoverMessageBase(params, ct.B, combined)
		c.Assert(err, qt.IsNil)
		decoded, err := Decode(params, gm, 10)
		c.Assert(err, qt.IsNil)
		c.Assert(decoded, qt.Equals, uint64(m))
	}
}
