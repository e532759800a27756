package main

import "math/big"

// demoParams returns a toy-sized safe-prime group (p = 2q+1, both prime)
// suitable for driving the demo end to end quickly. A real deployment
// configures a cryptographically sized group (2048 bits or larger) out of
// band; generating one is outside this binary's scope.
func demoParams() (p, g, h *big.Int) {
	p, _ = new(big.Int).SetString("1206235803744521987", 10)
	return p, big.NewInt(3), big.NewInt(9)
}
