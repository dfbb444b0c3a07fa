package executor

const letters = "abcdefghijklmnopqrstuvwxyz"
const nameWidth = 4

// NameGenerator produces the short names each intermediate stage
// result is registered under: 4 lowercase letters encoding a monotonic
// counter rather than drawn from math/rand, so names never collide
// within a session and the same query compiles to the same
// intermediate names every time.
type NameGenerator struct {
	next int
}

// NewNameGenerator returns a NameGenerator whose first name is "aaaa".
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{}
}

// Next returns the next name in sequence: "aaaa", "aaab", "aaac", ...
func (g *NameGenerator) Next() string {
	n := g.next
	g.next++

	b := make([]byte, nameWidth)
	for i := nameWidth - 1; i >= 0; i-- {
		b[i] = letters[n%len(letters)]
		n /= len(letters)
	}
	return string(b)
}
