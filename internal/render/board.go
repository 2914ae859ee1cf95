// Package render draws game snapshots as plain text.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samvad-hq/minesweeper-client/pkg/minesweeper"
)

const (
	hiddenCell  = "#"
	flaggedCell = "F"
	emptyCell   = "."

	maxGridSide = 128
)

// Board renders the game as a grid, one line per row, preceded by a summary line.
// The grid has the dimensions in the game settings (the square extent when settings are
// empty), capped at maxGridSide, and starts at the smallest column/row seen so the
// server's coordinate base is kept. Squares outside the grid are counted, not drawn.
func Board(game minesweeper.Game) string {
	var b strings.Builder
	fmt.Fprintf(&b, "game %d  status=%s  %dx%d  mines=%d\n",
		game.ID, game.Status, game.Settings.Columns, game.Settings.Rows, game.Settings.Mines)

	if len(game.Squares) == 0 {
		return b.String()
	}

	minCol, minRow, maxCol, maxRow := bounds(game.Squares)
	columns := gridSide(game.Settings.Columns, maxCol-minCol+1)
	rows := gridSide(game.Settings.Rows, maxRow-minRow+1)
	lastCol, lastRow := minCol+columns-1, minRow+rows-1

	cells := make(map[[2]int]minesweeper.Square, min(len(game.Squares), columns*rows))
	skipped := 0
	for _, sq := range game.Squares {
		if sq.Column > lastCol || sq.Row > lastRow {
			skipped++
			continue
		}
		cells[[2]int{sq.Column, sq.Row}] = sq
	}

	width := 0
	for _, n := range []int{minCol, lastCol, minRow, lastRow} {
		width = max(width, len(strconv.Itoa(n)))
	}

	b.WriteString(strings.Repeat(" ", width+1))
	for col := minCol; col <= lastCol; col++ {
		fmt.Fprintf(&b, " %*d", width, col)
	}
	b.WriteByte('\n')

	for row := minRow; row <= lastRow; row++ {
		fmt.Fprintf(&b, "%*d ", width, row)
		for col := minCol; col <= lastCol; col++ {
			sq, ok := cells[[2]int{col, row}]
			cell := " "
			if ok {
				cell = Cell(sq)
			}
			fmt.Fprintf(&b, " %*s", width, cell)
		}
		b.WriteByte('\n')
	}

	if skipped > 0 {
		fmt.Fprintf(&b, "%d of %d squares outside the grid not shown\n", skipped, len(game.Squares))
	}
	return b.String()
}

// gridSide picks one grid dimension: the configured size when positive, else the extent.
func gridSide(configured, extent int) int {
	n := configured
	if n <= 0 {
		n = extent
	}
	return max(1, min(n, maxGridSide))
}

// Cell returns the symbol for one square.
func Cell(sq minesweeper.Square) string {
	switch {
	case sq.Revealed:
		if v := strings.TrimSpace(sq.DisplayValue); v != "" {
			return v
		}
		return emptyCell
	case sq.Flag:
		return flaggedCell
	default:
		return hiddenCell
	}
}

func bounds(squares []minesweeper.Square) (minCol, minRow, maxCol, maxRow int) {
	minCol, minRow = squares[0].Column, squares[0].Row
	maxCol, maxRow = minCol, minRow
	for _, sq := range squares[1:] {
		minCol = min(minCol, sq.Column)
		maxCol = max(maxCol, sq.Column)
		minRow = min(minRow, sq.Row)
		maxRow = max(maxRow, sq.Row)
	}
	return minCol, minRow, maxCol, maxRow
}
