package cli

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a seam for tests.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth is the column count of w, or fallback when unknown.
func terminalWidth(w io.Writer, fallback int) int {
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	return fallback
}

// quietZone is the light border, in modules, drawn around the code.
const quietZone = 2

// renderHalfBlocks draws a PNG with one character per module horizontally
// and two modules per character vertically. Light modules are drawn as
// blocks so the code reads on dark terminals; invert for light themes.
func renderHalfBlocks(w io.Writer, pngData []byte, maxCols int, invert bool) error {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return fmt.Errorf("decode qr image: %w", err)
	}

	grid := sampleModules(img, maxCols-2*quietZone)
	n := len(grid)
	size := n + 2*quietZone
	dark := func(x, y int) bool {
		x, y = x-quietZone, y-quietZone
		if x < 0 || y < 0 || y >= n || x >= len(grid[y]) {
			return false
		}
		return grid[y][x]
	}

	draw := func(x, y int) bool {
		if y >= size {
			return false
		}
		return dark(x, y) == invert
	}

	var b strings.Builder
	for y := 0; y < size; y += 2 {
		for x := 0; x < size; x++ {
			top, bottom := draw(x, y), draw(x, y+1)
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		b.WriteByte('\n')
	}

	_, err = io.WriteString(w, b.String())
	return err
}

// sampleModules reduces img to a square grid of dark/light cells. When the
// image is a plain QR code its module size is recovered from the top-left
// finder pattern (seven modules wide) and each module is sampled at its
// centre. Anything else is resampled to at most maxCells per side.
func sampleModules(img image.Image, maxCells int) [][]bool {
	b := img.Bounds()

	left, top, moduleSize, ok := finderModule(img)
	if ok {
		right, bottom := left, top
		for y := top; y < b.Max.Y; y++ {
			for x := left; x < b.Max.X; x++ {
				if isDark(img.At(x, y)) {
					right, bottom = max(right, x), max(bottom, y)
				}
			}
		}
		n := (max(right-left, bottom-top) + 1) / moduleSize
		if n > 0 && n <= maxCells {
			return sampleGrid(img, left, top, moduleSize, moduleSize, n)
		}
	}

	side := min(b.Dx(), b.Dy())
	cells := min(maxCells, side)
	if cells <= 0 {
		return nil
	}
	step := float64(side) / float64(cells)
	grid := make([][]bool, cells)
	for y := range grid {
		grid[y] = make([]bool, cells)
		for x := range grid[y] {
			px := b.Min.X + int((float64(x)+0.5)*step)
			py := b.Min.Y + int((float64(y)+0.5)*step)
			grid[y][x] = isDark(img.At(px, py))
		}
	}
	return grid
}

func sampleGrid(img image.Image, left, top, sx, sy, n int) [][]bool {
	grid := make([][]bool, n)
	for y := range grid {
		grid[y] = make([]bool, n)
		for x := range grid[y] {
			grid[y][x] = isDark(img.At(left+x*sx+sx/2, top+y*sy+sy/2))
		}
	}
	return grid
}

// finderModule locates the first dark pixel and measures the dark run that
// starts there. A QR finder pattern's top edge is seven modules long.
func finderModule(img image.Image) (left, top, moduleSize int, ok bool) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isDark(img.At(x, y)) {
				continue
			}
			run := 0
			for x+run < b.Max.X && isDark(img.At(x+run, y)) {
				run++
			}
			if run < 7 || run%7 != 0 {
				return 0, 0, 0, false
			}
			return x, y, run / 7, true
		}
	}
	return 0, 0, 0, false
}

func isDark(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	return g.Y < 128
}
