package proof

import (
	"math/big"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/errs"
	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/transcript"
)

// DecryptionShare is one sealer's partial decryption of a bucket of
// ciphertexts, together with a single Chaum-Pedersen proof that every share
// was computed with the same exponent that produced the sealer's published
// key share h_i = g^{x_i}.
type DecryptionShare struct {
	Shares []*big.Int // d_j = a_j^{x_i} mod p, one per ciphertext in the bucket
	C      *big.Int   // challenge
	S      *big.Int   // response
}

// ProveDecryptionShare computes sealer i's partial decryption of every
// ciphertext in cs and a single equality-of-discrete-logs proof binding
// log_g(h_i) to log_{a_j}(d_j) for every j, per §4.5. Bucket and sealer
// identifiers are absorbed into the transcript so the proof cannot be
// replayed against a different bucket or sealer.
func ProveDecryptionShare(params *group.Params, h, xi *big.Int, cs []elgamal.Ciphertext, sealerID, bucketID []byte) (DecryptionShare, error) {
	if len(cs) == 0 {
		return DecryptionShare{}, errs.ErrShuffleCiphersSizeZero
	}
	q := params.Q()

	w, err := bignum.RandomRange(big.NewInt(1), q)
	if err != nil {
		return DecryptionShare{}, err
	}

	shares := make([]*big.Int, len(cs))
	t2 := make([]*big.Int, len(cs))
	for j, c := range cs {
		shares[j] = elgamal.PartialDecrypt(params, c.A, xi)
		t2[j] = bignum.ModPow(c.A, w, params.P)
	}
	t1 := bignum.ModPow(params.G, w, params.P)

	c := decryptionChallenge(params, h, cs, shares, t1, t2, sealerID, bucketID)

	cx := bignum.ModMul(c, xi, q)
	s, err := bignum.ModAdd(w, cx, q)
	if err != nil {
		return DecryptionShare{}, err
	}

	return DecryptionShare{Shares: shares, C: c, S: s}, nil
}

// VerifyDecryptionShare checks that share was produced by a sealer who knows
// the discrete log of h (their published key share) relative to g, and that
// every d_j was computed with that same exponent relative to a_j.
func VerifyDecryptionShare(params *group.Params, h *big.Int, cs []elgamal.Ciphertext, share DecryptionShare, sealerID, bucketID []byte) error {
	if len(cs) == 0 || len(share.Shares) != len(cs) {
		return errs.ErrDecryptedShareProof
	}
	if share.C == nil || share.S == nil {
		return errs.ErrDecryptedShareProof
	}
	q := params.Q()
	if share.S.Sign() < 0 || share.S.Cmp(q) >= 0 || share.C.Sign() < 0 || share.C.Cmp(q) >= 0 {
		return errs.ErrDecryptedShareProof
	}

	// t1 = g^s * h^{-c}
	gs := bignum.ModPow(params.G, share.S, params.P)
	hc := bignum.ModPow(h, share.C, params.P)
	hcInv, err := bignum.InvMod(hc, params.P)
	if err != nil {
		return errs.ErrDecryptedShareProof
	}
	t1 := bignum.ModMul(gs, hcInv, params.P)

	t2 := make([]*big.Int, len(cs))
	for j, ct := range cs {
		// t2_j = a_j^s * d_j^{-c}
		as := bignum.ModPow(ct.A, share.S, params.P)
		dc := bignum.ModPow(share.Shares[j], share.C, params.P)
		dcInv, err := bignum.InvMod(dc, params.P)
		if err != nil {
			return errs.ErrDecryptedShareProof
		}
		t2[j] = bignum.ModMul(as, dcInv, params.P)
	}

	want := decryptionChallenge(params, h, cs, share.Shares, t1, t2, sealerID, bucketID)
	if want.Cmp(share.C) != 0 {
		return errs.ErrDecryptedShareProof
	}
	return nil
}

func decryptionChallenge(params *group.Params, h *big.Int, cs []elgamal.Ciphertext, shares []*big.Int, t1 *big.Int, t2 []*big.Int, sealerID, bucketID []byte) *big.Int {
	tr := transcript.New("mixnet/decrypt")
	tr.AbsorbInt("p", params.P)
	tr.AbsorbInt("g", params.G)
	tr.AbsorbPublicKey("h", h)
	tr.AbsorbBytes("sealer_id", sealerID)
	tr.AbsorbBytes("bucket_id", bucketID)
	as := make([]*big.Int, len(cs))
	bs := make([]*big.Int, len(cs))
	for i, c := range cs {
		as[i] = c.A
		bs[i] = c.B
	}
	tr.AbsorbInts("a", as)
	tr.AbsorbInts("b", bs)
	tr.AbsorbInts("d", shares)
	tr.AbsorbInt("t1", t1)
	tr.AbsorbInts("t2", t2)
	return tr.ChallengeMod("c", params.Q())
}
