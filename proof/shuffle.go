package proof

import (
	"math/big"

	"github.com/meck93/mixnet/bignum"
	"github.com/meck93/mixnet/elgamal"
	"github.com/meck93/mixnet/errs"
	"github.com/meck93/mixnet/group"
	"github.com/meck93/mixnet/transcript"
)

// ShuffleWitness is everything the prover knows and the verifier does not:
// the permutation and the randomness used to build the permutation
// commitment, the re-encryption of the ciphertext vector, and the
// commitment chain.
//
// Pos[j] gives the source index in the input vector that was routed to
// output position j (i.e. Pos = π^{-1}); R[j] is both the re-encryption
// randomness for output position j and the exponent used when committing
// to it, binding the two together exactly as §4.4 requires; RHat[j] is the
// fresh randomness used for the j-th link of the commitment chain.
type ShuffleWitness struct {
	Pos  []int
	R    []*big.Int
	RHat []*big.Int
}

// ShuffleProof is the non-interactive zero-knowledge proof that Output is a
// re-encryption shuffle of Input under JointPK, following the
// permutation-matrix commitment and commitment-chain construction of §4.4.
//
// It is a simplified, self-contained rendition of the Wikström
// commitment-consistent proof of a shuffle: the permutation commitment and
// chain are exactly as specified, and the Σ-protocol proves (i) the
// exponent sum of the permutation commitment matches the independent
// generators, (ii) the commitment chain telescopes to the product of all
// challenges, (iii) every individual link of the chain opens to some
// (r̂_j, û_j) pair, and (iv) the output vector is, in aggregate, exactly a
// component-wise re-encryption of the input vector under the same exponent
// sum certified in (i).
//
// Following §6's wire encoding, the Σ-protocol's announcements (T_1..T_4
// and the per-link vector T̂) are not carried in the proof value itself:
// both prover and verifier derive them from the statement and the
// responses, the same compressed-Schnorr trick used for the key-generation
// and decryption-share proofs elsewhere in this package.
type ShuffleProof struct {
	C  []*big.Int // permutation-matrix commitment, indexed by output position
	CH []*big.Int // commitment chain ĉ_1..ĉ_N

	E *big.Int // main Fiat-Shamir challenge

	S1, S2, S3, S4 *big.Int
	SHat, STilde   []*big.Int // per-link responses ŝ_1..ŝ_N, s̃_1..s̃_N
}

// ProveShuffle builds the shuffle proof for a prover who has already
// produced output as a re-encryption shuffle of input consistent with
// witness.
func ProveShuffle(params *group.Params, jointPK *big.Int, voteID []byte, input, output []elgamal.Ciphertext, w ShuffleWitness) (ShuffleProof, error) {
	n := len(input)
	if n == 0 {
		return ShuffleProof{}, errs.ErrShuffleCiphersSizeZero
	}
	if len(output) != n || len(w.Pos) != n || len(w.R) != n || len(w.RHat) != n {
		return ShuffleProof{}, errs.ErrShuffleCiphersSizeZero
	}
	q := params.Q()
	hGens := params.IndependentGenerators(voteID, n)

	// Permutation-matrix commitment: c_j = g^{r_j} * h_{pos(j)} mod p.
	c := make([]*big.Int, n)
	for j := 0; j < n; j++ {
		c[j] = bignum.ModMul(bignum.ModPow(params.G, w.R[j], params.P), hGens[w.Pos[j]], params.P)
	}

	// Challenges u_1..u_N bound to (input, output, c, jointPK).
	baseTr := shuffleBaseTranscript(params, jointPK, voteID, input, output, c)
	u := baseTr.ChallengeVectorMod("u", n, q)

	// uHat_j = u_{pos(j)}, the challenges reordered to match the permutation.
	uHat := make([]*big.Int, n)
	for j := 0; j < n; j++ {
		uHat[j] = u[w.Pos[j]]
	}

	// Commitment chain: ĉ_0 = h, ĉ_j = g^{r̂_j} * ĉ_{j-1}^{û_j}.
	chain := make([]*big.Int, n)
	prev := params.H
	for j := 0; j < n; j++ {
		chain[j] = bignum.ModMul(bignum.ModPow(params.G, w.RHat[j], params.P), bignum.ModPow(prev, uHat[j], params.P), params.P)
		prev = chain[j]
	}

	// R = sum of all r_j: the shared exponent certifying both the
	// permutation commitment's h-exponent sum and the aggregate
	// re-encryption of the output vector.
	rSum := big.NewInt(0)
	for _, r := range w.R {
		rSum, _ = bignum.ModAdd(rSum, r, q)
	}

	// rHatSum = sum_j rhat_j * w_j, w_j = product of uHat_{j+1..N-1}, the
	// telescoped chain witness: ĉ_{N-1} = g^rHatSum * h^{prod(u)}.
	rHatSum := chainWitnessSum(w.RHat, uHat, q)

	w1, err := bignum.RandomRange(big.NewInt(1), q)
	if err != nil {
		return ShuffleProof{}, err
	}
	w2, err := bignum.RandomRange(big.NewInt(1), q)
	if err != nil {
		return ShuffleProof{}, err
	}
	w3, err := bignum.RandomRange(big.NewInt(1), q)
	if err != nil {
		return ShuffleProof{}, err
	}
	w4, err := bignum.RandomRange(big.NewInt(1), q)
	if err != nil {
		return ShuffleProof{}, err
	}

	t1 := bignum.ModPow(params.G, w1, params.P)
	t2 := bignum.ModPow(params.G, w2, params.P)
	t3 := bignum.ModPow(params.G, w3, params.P)
	t4 := bignum.ModPow(jointPK, w4, params.P)

	wHat := make([]*big.Int, n)
	wTilde := make([]*big.Int, n)
	that := make([]*big.Int, n)
	prev = params.H
	for j := 0; j < n; j++ {
		wh, err := bignum.RandomRange(big.NewInt(1), q)
		if err != nil {
			return ShuffleProof{}, err
		}
		wt, err := bignum.RandomRange(big.NewInt(1), q)
		if err != nil {
			return ShuffleProof{}, err
		}
		wHat[j], wTilde[j] = wh, wt
		that[j] = bignum.ModMul(bignum.ModPow(params.G, wh, params.P), bignum.ModPow(prev, wt, params.P), params.P)
		prev = chain[j]
	}

	e := shuffleChallenge(baseTr, chain, t1, t2, t3, t4, that, q)

	s1, err := responseFor(w1, e, rSum, q)
	if err != nil {
		return ShuffleProof{}, err
	}
	s2, err := responseFor(w2, e, rHatSum, q)
	if err != nil {
		return ShuffleProof{}, err
	}
	s3, err := responseFor(w3, e, rSum, q)
	if err != nil {
		return ShuffleProof{}, err
	}
	s4, err := responseFor(w4, e, rSum, q)
	if err != nil {
		return ShuffleProof{}, err
	}

	sHat := make([]*big.Int, n)
	sTilde := make([]*big.Int, n)
	for j := 0; j < n; j++ {
		sHat[j], err = responseFor(wHat[j], e, w.RHat[j], q)
		if err != nil {
			return ShuffleProof{}, err
		}
		sTilde[j], err = responseFor(wTilde[j], e, uHat[j], q)
		if err != nil {
			return ShuffleProof{}, err
		}
	}

	return ShuffleProof{
		C: c, CH: chain,
		E:  e,
		S1: s1, S2: s2, S3: s3, S4: s4, SHat: sHat, STilde: sTilde,
	}, nil
}

// VerifyShuffle recomputes every announcement from the public values and
// responses, recomputes the main challenge, and checks equality, per §4.4's
// verification step.
func VerifyShuffle(params *group.Params, jointPK *big.Int, voteID []byte, input, output []elgamal.Ciphertext, proof ShuffleProof) error {
	n := len(input)
	if n == 0 || len(output) != n {
		return errs.ErrShuffleProof
	}
	if len(proof.C) != n || len(proof.CH) != n || len(proof.SHat) != n || len(proof.STilde) != n {
		return errs.ErrShuffleProof
	}
	q := params.Q()
	if !inRangeMod(proof.S1, q) || !inRangeMod(proof.S2, q) || !inRangeMod(proof.S3, q) || !inRangeMod(proof.S4, q) || !inRangeMod(proof.E, q) {
		return errs.ErrShuffleProof
	}
	for j := 0; j < n; j++ {
		if !inRangeMod(proof.SHat[j], q) || !inRangeMod(proof.STilde[j], q) {
			return errs.ErrShuffleProof
		}
		if !inRangeGroup(proof.C[j], params.P) || !inRangeGroup(proof.CH[j], params.P) {
			return errs.ErrShuffleProof
		}
	}

	hGens := params.IndependentGenerators(voteID, n)
	baseTr := shuffleBaseTranscript(params, jointPK, voteID, input, output, proof.C)
	u := baseTr.ChallengeVectorMod("u", n, q)
	uProduct := big.NewInt(1)
	for _, ui := range u {
		uProduct = bignum.ModMul(uProduct, ui, q)
	}

	// (i) exponent-sum statement: prod(c_j) / prod(h_i) == g^R.
	hProduct := big.NewInt(1)
	for _, h := range hGens {
		hProduct = bignum.ModMul(hProduct, h, params.P)
	}
	cProduct := big.NewInt(1)
	for _, cj := range proof.C {
		cProduct = bignum.ModMul(cProduct, cj, params.P)
	}
	hProductInv, err := bignum.InvMod(hProduct, params.P)
	if err != nil {
		return errs.ErrShuffleProof
	}
	statement1 := bignum.ModMul(cProduct, hProductInv, params.P)
	t1, err := recomputeAnnouncement(params.G, params.P, statement1, proof.E, proof.S1)
	if err != nil {
		return errs.ErrShuffleProof
	}

	// (ii) chain telescoping statement: ĉ_{N-1} / h^{prod(u)} == g^R̂.
	hPowU := bignum.ModPow(params.H, uProduct, params.P)
	hPowUInv, err := bignum.InvMod(hPowU, params.P)
	if err != nil {
		return errs.ErrShuffleProof
	}
	statement2 := bignum.ModMul(proof.CH[n-1], hPowUInv, params.P)
	t2, err := recomputeAnnouncement(params.G, params.P, statement2, proof.E, proof.S2)
	if err != nil {
		return errs.ErrShuffleProof
	}

	// (iv) aggregate re-encryption consistency on both ciphertext
	// components, reusing the exponent-sum relation's witness.
	inA, inB := aggregateComponents(input, params.P)
	outA, outB := aggregateComponents(output, params.P)
	inAInv, err := bignum.InvMod(inA, params.P)
	if err != nil {
		return errs.ErrShuffleProof
	}
	inBInv, err := bignum.InvMod(inB, params.P)
	if err != nil {
		return errs.ErrShuffleProof
	}
	statement3 := bignum.ModMul(outA, inAInv, params.P)
	statement4 := bignum.ModMul(outB, inBInv, params.P)
	t3, err := recomputeAnnouncement(params.G, params.P, statement3, proof.E, proof.S3)
	if err != nil {
		return errs.ErrShuffleProof
	}
	t4, err := recomputeAnnouncement(jointPK, params.P, statement4, proof.E, proof.S4)
	if err != nil {
		return errs.ErrShuffleProof
	}

	// (iii) per-link chain-opening statements: T̂_j = g^{ŝ_j} * ĉ_{j-1}^{s̃_j} * ĉ_j^{-e}.
	that := make([]*big.Int, n)
	prev := params.H
	for j := 0; j < n; j++ {
		lhs := bignum.ModMul(bignum.ModPow(params.G, proof.SHat[j], params.P), bignum.ModPow(prev, proof.STilde[j], params.P), params.P)
		chInv, err := bignum.InvMod(proof.CH[j], params.P)
		if err != nil {
			return errs.ErrShuffleProof
		}
		that[j] = bignum.ModMul(lhs, bignum.ModPow(chInv, proof.E, params.P), params.P)
		prev = proof.CH[j]
	}

	wantE := shuffleChallenge(baseTr, proof.CH, t1, t2, t3, t4, that, q)
	if wantE.Cmp(proof.E) != 0 {
		return errs.ErrShuffleProof
	}
	return nil
}

func responseFor(w, e, witness, q *big.Int) (*big.Int, error) {
	ew := bignum.ModMul(e, witness, q)
	return bignum.ModAdd(w, ew, q)
}

// recomputeAnnouncement inverts the standard Schnorr verification equation
// g^s == T * statement^e to recover T = g^s * statement^{-e}, the
// compressed-Schnorr trick that lets the wire encoding omit announcements
// entirely.
func recomputeAnnouncement(base, p, statement, e, s *big.Int) (*big.Int, error) {
	gs := bignum.ModPow(base, s, p)
	se := bignum.ModPow(statement, e, p)
	seInv, err := bignum.InvMod(se, p)
	if err != nil {
		return nil, err
	}
	return bignum.ModMul(gs, seInv, p), nil
}

func aggregateComponents(cs []elgamal.Ciphertext, p *big.Int) (a, b *big.Int) {
	a, b = big.NewInt(1), big.NewInt(1)
	for _, c := range cs {
		a = bignum.ModMul(a, c.A, p)
		b = bignum.ModMul(b, c.B, p)
	}
	return a, b
}

// chainWitnessSum computes R̂ = Σ_j r̂_j * (Π_{k=j+1}^{N-1} û_k), the scalar
// that makes the commitment chain telescope to g^{R̂} * h^{Π û_k}.
func chainWitnessSum(rHat, uHat []*big.Int, q *big.Int) *big.Int {
	n := len(rHat)
	suffix := make([]*big.Int, n+1)
	suffix[n] = big.NewInt(1)
	for k := n - 1; k >= 0; k-- {
		suffix[k] = bignum.ModMul(suffix[k+1], uHat[k], q)
	}
	sum := big.NewInt(0)
	for j := 0; j < n; j++ {
		term := bignum.ModMul(rHat[j], suffix[j+1], q)
		sum, _ = bignum.ModAdd(sum, term, q)
	}
	return sum
}

func shuffleBaseTranscript(params *group.Params, jointPK *big.Int, voteID []byte, input, output []elgamal.Ciphertext, c []*big.Int) *transcript.Transcript {
	tr := transcript.New("mixnet/shuffle")
	tr.AbsorbInt("p", params.P)
	tr.AbsorbInt("g", params.G)
	tr.AbsorbInt("h", params.H)
	tr.AbsorbPublicKey("joint_pk", jointPK)
	tr.AbsorbBytes("vote_id", voteID)
	tr.AbsorbInts("e_a", componentA(input))
	tr.AbsorbInts("e_b", componentB(input))
	tr.AbsorbInts("ehat_a", componentA(output))
	tr.AbsorbInts("ehat_b", componentB(output))
	tr.AbsorbInts("c", c)
	return tr
}

func componentA(cs []elgamal.Ciphertext) []*big.Int {
	out := make([]*big.Int, len(cs))
	for i, c := range cs {
		out[i] = c.A
	}
	return out
}

func componentB(cs []elgamal.Ciphertext) []*big.Int {
	out := make([]*big.Int, len(cs))
	for i, c := range cs {
		out[i] = c.B
	}
	return out
}

// shuffleChallenge derives the main Σ-protocol challenge e from the full
// public transcript: the base statement plus the commitment chain and
// every Σ-protocol announcement. q is passed in explicitly by the caller
// (both prover and verifier derive it from the shared group parameters)
// rather than recovered from the transcript itself.
func shuffleChallenge(base *transcript.Transcript, chain []*big.Int, t1, t2, t3, t4 *big.Int, that []*big.Int, q *big.Int) *big.Int {
	tr := base.Clone()
	tr.AbsorbInts("chain", chain)
	tr.AbsorbInt("t1", t1)
	tr.AbsorbInt("t2", t2)
	tr.AbsorbInt("t3", t3)
	tr.AbsorbInt("t4", t4)
	tr.AbsorbInts("that", that)
	return tr.ChallengeMod("e", q)
}

func inRangeMod(v, q *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(q) < 0
}

func inRangeGroup(v, p *big.Int) bool {
	return v != nil && v.Sign() > 0 && v.Cmp(p) < 0
}
