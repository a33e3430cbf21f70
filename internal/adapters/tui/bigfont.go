package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// digitMap maps each digit character (0-9) and colon to a 5-line ASCII representation.
// Each digit is 4 chars wide, colon is 1 char wide.
var digitMap = map[rune][5]string{
	'0': {
		"████",
		"█  █",
		"█  █",
		"█  █",
		"████",
	},
	'1': {
		" █ ",
		"██ ",
		" █ ",
		" █ ",
		"███",
	},
	'2': {
		"████",
		"   █",
		"████",
		"█   ",
		"████",
	},
	'3': {
		"████",
		"   █",
		"████",
		"   █",
		"████",
	},
	'4': {
		"█  █",
		"█  █",
		"████",
		"   █",
		"   █",
	},
	'5': {
		"████",
		"█   ",
		"████",
		"   █",
		"████",
	},
	'6': {
		"████",
		"█   ",
		"████",
		"█  █",
		"████",
	},
	'7': {
		"████",
		"   █",
		"  █ ",
		" █  ",
		" █  ",
	},
	'8': {
		"████",
		"█  █",
		"████",
		"█  █",
		"████",
	},
	'9': {
		"████",
		"█  █",
		"████",
		"   █",
		"████",
	},
	':': {
		" ",
		"█",
		" ",
		"█",
		" ",
	},
}

// formatClock renders a countdown as MM:SS. Anything past an hour keeps
// counting minutes.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// renderBigTime takes a time string like "14:32" and returns a multi-line
// styled ASCII art representation. Falls back to a single styled line
// if the terminal width is less than 40.
func renderBigTime(timeStr string, color lipgloss.Color, width int) string {
	if width < 40 {
		style := lipgloss.NewStyle().Bold(true).Foreground(color)
		return style.Render(timeStr)
	}

	lines := [5]string{}
	for _, ch := range timeStr {
		glyph, ok := digitMap[ch]
		if !ok {
			continue
		}
		for i := 0; i < 5; i++ {
			if lines[i] != "" {
				lines[i] += " "
			}
			lines[i] += glyph[i]
		}
	}

	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	styled := make([]string, 5)
	for i, line := range lines {
		styled[i] = style.Render(line)
	}

	return strings.Join(styled, "\n")
}
