package card

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// rowSets lists every subset of the three rows, grouped by size.
var rowSets = [maxHigh + 1][][]int{
	1: {{0}, {1}, {2}},
	2: {{0, 1}, {0, 2}, {1, 2}},
	3: {{0, 1, 2}},
}

// Generator builds cards from its own random source.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

var (
	defaultGen   *Generator
	defaultGenMu sync.Mutex
)

// Generate returns a card drawn from a process-wide random source.
func Generate() Card {
	defaultGenMu.Lock()
	defer defaultGenMu.Unlock()
	if defaultGen == nil {
		defaultGen = NewGenerator(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}
	return defaultGen.Generate()
}

// GenerateN returns n independent cards.
func (g *Generator) GenerateN(n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = g.Generate()
	}
	return cards
}

// Generate builds one card. Placement is a depth-first search over shuffled
// row subsets, so it cannot return a card that breaks an invariant.
func (g *Generator) Generate() Card {
	counts := g.columnCounts()
	rows := make([][]int, Cols)
	var totals [Rows]int
	if !g.place(counts, 0, &totals, rows) {
		// Unreachable: any count vector summing to 15 with cap 3 fits 3 rows of 5.
		panic("card: no row placement for column counts")
	}

	var c Card
	for col := 0; col < Cols; col++ {
		vals := g.draw(col, counts[col])
		for i, r := range rows[col] {
			c[r][col] = vals[i]
		}
	}
	return c
}

// columnCounts starts every column at 1 and spreads the remaining six cells
// over columns that are still below the cap.
func (g *Generator) columnCounts() [Cols]int {
	var counts [Cols]int
	for i := range counts {
		counts[i] = 1
	}
	for extra := Total - Cols; extra > 0; {
		col := g.rng.IntN(Cols)
		if counts[col] < maxHigh {
			counts[col]++
			extra--
		}
	}
	return counts
}

func (g *Generator) place(counts [Cols]int, col int, totals *[Rows]int, rows [][]int) bool {
	if col == Cols {
		return totals[0] == PerRow && totals[1] == PerRow && totals[2] == PerRow
	}

	options := slices.Clone(rowSets[counts[col]])
	g.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	for _, set := range options {
		fits := true
		for _, r := range set {
			if totals[r]+1 > PerRow {
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		for _, r := range set {
			totals[r]++
		}
		rows[col] = set
		if g.place(counts, col+1, totals, rows) {
			return true
		}
		for _, r := range set {
			totals[r]--
		}
	}
	rows[col] = nil
	return false
}

// draw picks n distinct values from column col, ascending.
func (g *Generator) draw(col, n int) []int {
	lo, hi := ColumnRange(col)
	perm := g.rng.Perm(hi - lo + 1)[:n]
	vals := make([]int, n)
	for i, p := range perm {
		vals[i] = lo + p
	}
	slices.Sort(vals)
	return vals
}
