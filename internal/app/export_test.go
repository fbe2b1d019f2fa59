package app

import "time"

// WithDebounce sets the watch mode debounce window.
func (a *App) WithDebounce(window time.Duration) *App {
	a.debounce = window
	return a
}
