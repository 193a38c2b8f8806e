// Package ui renders CLI output: colored status lines, resolution summaries and
// live progress for single and bulk lyric resolutions.
//
// Styles come from [lipgloss]; a [Palette] can be swapped for [Plain] when the
// output is not a terminal so reports stay grep-friendly.
package ui
