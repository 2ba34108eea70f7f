package install

import "time"

// LocalVersion is recorded for packages installed from a local archive.
const LocalVersion = "0"

// State is what the previous run left behind.
type State struct {
	// Version is the package version in the install directory.
	Version string
	// LastUpdateCheck is when the repository was last consulted.
	LastUpdateCheck time.Time
}

// Clone returns a copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// CheckedWithin reports whether the last check is less than interval before now.
func (s *State) CheckedWithin(now time.Time, interval time.Duration) bool {
	if s == nil || s.LastUpdateCheck.IsZero() {
		return false
	}

	return now.Sub(s.LastUpdateCheck) < interval
}
