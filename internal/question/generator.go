package question

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// historyBound caps the recent-question window; once exceeded the window
// resets instead of growing without bound
const historyBound = 100

// Generator produces arithmetic challenges over +, -, * and /. Operands
// are constrained so subtraction never goes negative and division always
// yields an integer. A bounded history avoids immediate repeats.
type Generator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewGenerator creates a new challenge generator
func NewGenerator() *Generator {
	return &Generator{seen: make(map[string]struct{})}
}

// Next returns a fresh expression and its exact integer answer
func (g *Generator) Next() (string, int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		expr, answer := generate()
		if _, dup := g.seen[expr]; dup {
			if len(g.seen) > historyBound {
				g.seen = make(map[string]struct{})
			}
			continue
		}
		g.seen[expr] = struct{}{}
		return expr, answer
	}
}

func generate() (string, int) {
	switch rand.IntN(4) {
	case 0:
		a, b := randRange(10, 99), randRange(10, 99)
		return fmt.Sprintf("%d + %d", a, b), a + b
	case 1:
		a := randRange(10, 99)
		b := randRange(1, a)
		return fmt.Sprintf("%d - %d", a, b), a - b
	case 2:
		a, b := randRange(2, 12), randRange(2, 12)
		return fmt.Sprintf("%d * %d", a, b), a * b
	default:
		b := randRange(2, 12)
		a := b * randRange(1, 12)
		return fmt.Sprintf("%d / %d", a, b), a / b
	}
}

// randRange returns a uniform int in [lo, hi]
func randRange(lo, hi int) int {
	return lo + rand.IntN(hi-lo+1)
}
