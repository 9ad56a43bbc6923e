package pairing

import "strings"

// Terminal draws the symbol with half-block characters, two module rows per
// text row, surrounded by margin light modules. Light modules are drawn as
// blocks, so the output should be shown light-on-dark.
func (img Image) Terminal(margin int) string {
	if len(img.Modules) == 0 {
		return ""
	}
	if margin < 0 {
		margin = 0
	}
	size := len(img.Modules) + 2*margin
	light := func(row, col int) bool {
		r, c := row-margin, col-margin
		if r < 0 || c < 0 || r >= len(img.Modules) || c >= len(img.Modules[r]) {
			return true
		}
		return !img.Modules[r][c]
	}

	var b strings.Builder
	for row := 0; row < size; row += 2 {
		for col := 0; col < size; col++ {
			top := light(row, col)
			bottom := row+1 < size && light(row+1, col)
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
