// Package colormode models the light/dark color preference shared between
// the server, the pre-paint head script and the toggle script.
package colormode

import (
	"fmt"
	"strings"
)

const (
	// StorageKey is the localStorage key holding the preference.
	StorageKey = "colorMode"
	// DarkClass is added to <html> while dark mode is active.
	DarkClass = "dark-mode"
)

// Mode is a color mode preference.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// Parse converts a stored value into a Mode.
func Parse(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return Light, fmt.Errorf("colormode: unknown mode %q", s)
}

// Toggle returns the opposite mode.
func (m Mode) Toggle() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// IsDark reports whether m is the dark mode.
func (m Mode) IsDark() bool { return m == Dark }

// Class returns the root element class for m, or "" for light mode.
func (m Mode) Class() string {
	if m == Dark {
		return DarkClass
	}
	return ""
}

// HeadScript returns the inline script that applies the stored preference
// before first paint. An explicit "light" clears a server-rendered class.
func HeadScript() string {
	return fmt.Sprintf(`(function(){try{var m=localStorage.getItem(%q);var c=document.documentElement.classList;if(m===%q){c.add(%q)}else if(m===%q){c.remove(%q)}}catch(e){}})();`,
		StorageKey, string(Dark), DarkClass, string(Light), DarkClass)
}
