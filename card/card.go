// Package card holds the 3x9 tombola card model and its generator.
package card

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	Rows    = 3
	Cols    = 9
	PerRow  = 5
	Total   = Rows * PerRow
	MinNum  = 1
	MaxNum  = 90
	maxHigh = 3 // most cells a column can hold
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid card")

// Card is a 3x9 grid. A zero cell is empty.
type Card [Rows][Cols]int

// ColumnRange returns the inclusive value range of column c.
func ColumnRange(c int) (lo, hi int) {
	switch c {
	case 0:
		return 1, 9
	case Cols - 1:
		return 80, 90
	default:
		return c * 10, c*10 + 9
	}
}

// ColumnOf returns the column that n belongs to, or -1 when n is out of range.
func ColumnOf(n int) int {
	if n < MinNum || n > MaxNum {
		return -1
	}
	if n == MaxNum {
		return Cols - 1
	}
	return n / 10
}

// Numbers returns the non-empty values in row-major order.
func (c Card) Numbers() []int {
	nums := make([]int, 0, Total)
	for r := 0; r < Rows; r++ {
		for col := 0; col < Cols; col++ {
			if v := c[r][col]; v != 0 {
				nums = append(nums, v)
			}
		}
	}
	return nums
}

// Contains reports whether n appears anywhere on the card.
func (c Card) Contains(n int) bool {
	col := ColumnOf(n)
	if col < 0 {
		return false
	}
	for r := 0; r < Rows; r++ {
		if c[r][col] == n {
			return true
		}
	}
	return false
}

// Validate checks every structural invariant and returns the first violation.
func (c Card) Validate() error {
	seen := make(map[int]bool, Total)
	for r := 0; r < Rows; r++ {
		filled := 0
		for col := 0; col < Cols; col++ {
			v := c[r][col]
			if v == 0 {
				continue
			}
			filled++
			lo, hi := ColumnRange(col)
			if v < lo || v > hi {
				return fmt.Errorf("%w: %d outside column %d range [%d,%d]", ErrInvalid, v, col, lo, hi)
			}
			if seen[v] {
				return fmt.Errorf("%w: %d repeats", ErrInvalid, v)
			}
			seen[v] = true
		}
		if filled != PerRow {
			return fmt.Errorf("%w: row %d has %d numbers, want %d", ErrInvalid, r, filled, PerRow)
		}
	}
	for col := 0; col < Cols; col++ {
		prev, n := 0, 0
		for r := 0; r < Rows; r++ {
			v := c[r][col]
			if v == 0 {
				continue
			}
			n++
			if v <= prev {
				return fmt.Errorf("%w: column %d not ascending at row %d", ErrInvalid, col, r)
			}
			prev = v
		}
		if n == 0 || n > maxHigh {
			return fmt.Errorf("%w: column %d holds %d numbers", ErrInvalid, col, n)
		}
	}
	return nil
}

// MarshalJSON encodes the card as 3 arrays of 9 entries, null for empty cells.
func (c Card) MarshalJSON() ([]byte, error) {
	var grid [Rows][Cols]*int
	for r := 0; r < Rows; r++ {
		for col := 0; col < Cols; col++ {
			if v := c[r][col]; v != 0 {
				grid[r][col] = &v
			}
		}
	}
	return json.Marshal(grid)
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var grid [][]*int
	if err := json.Unmarshal(data, &grid); err != nil {
		return err
	}
	if len(grid) != Rows {
		return fmt.Errorf("%w: %d rows, want %d", ErrInvalid, len(grid), Rows)
	}
	var out Card
	for r, row := range grid {
		if len(row) != Cols {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalid, r, len(row), Cols)
		}
		for col, v := range row {
			if v != nil {
				out[r][col] = *v
			}
		}
	}
	*c = out
	return nil
}
