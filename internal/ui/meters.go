package ui

import (
	"fmt"
	"strings"
)

// barBlocks are the unicode eighth-blocks used for bar rendering, from
// empty to full.
var barBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSpectrum draws spectrum bins as a grid of block characters, height
// rows tall, stretching the bins across the available width.
func RenderSpectrum(bins []float64, width, height int) string {
	if width <= 0 || height <= 0 || len(bins) == 0 {
		return ""
	}

	barWidth := width / len(bins)
	if barWidth < 1 {
		barWidth = 1
	}

	var sb strings.Builder
	for row := height; row >= 1; row-- {
		for _, v := range bins {
			// Bar height in eighths of a cell.
			eighths := int(v*float64(height)*8 + 0.5)
			cellFloor := (row - 1) * 8

			var ch rune
			switch {
			case eighths >= row*8:
				ch = barBlocks[8]
			case eighths > cellFloor:
				ch = barBlocks[eighths-cellFloor]
			default:
				ch = barBlocks[0]
			}
			for i := 0; i < barWidth; i++ {
				sb.WriteRune(ch)
			}
		}
		if row > 1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// RenderVU draws the left/right level meters on one line.
func RenderVU(left, right float64, width int) string {
	barLen := width/2 - 4
	if barLen < 4 {
		barLen = 4
	}
	return fmt.Sprintf("L %s  R %s", levelBar(left, barLen), levelBar(right, barLen))
}

func levelBar(level float64, length int) string {
	filled := int(level*float64(length) + 0.5)
	if filled > length {
		filled = length
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// RenderProgress draws a seek bar of the given width for progress in [0,1].
func RenderProgress(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	if filled >= width {
		filled = width - 1
	}
	return "[" + strings.Repeat("=", filled) + ">" + strings.Repeat(" ", width-filled-1) + "]"
}

// FormatTime renders seconds as MM:SS.
func FormatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
