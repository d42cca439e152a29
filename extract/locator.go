package extract

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Locator describes how to find a page element. It is CSS-selector shaped
// but treated as opaque by everything above the driver.
type Locator string

// Candidates is an ordered fallback list for one semantic target,
// highest-confidence first. The target site's markup changes without
// notice; ordering from most-specific to most-generic gives best-effort
// resilience without pinning a single brittle selector.
type Candidates []Locator

// Validate parses every candidate and reports the first malformed one.
// Schema tables are static data, so this is called once at startup (and
// from tests) to fail fast instead of silently skipping a bad fallback.
func (c Candidates) Validate() error {
	for _, loc := range c {
		if _, err := cascadia.Parse(string(loc)); err != nil {
			return fmt.Errorf("locator %q: %w", loc, err)
		}
	}
	return nil
}
