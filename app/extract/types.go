package extract

import "fmt"

// UnsupportedFormatError signals an XML document whose root element is
// neither an RSS nor an Atom shape. Callers treat the resource as
// unusable and move on; it must never abort a whole aggregation cycle.
type UnsupportedFormatError struct {
	URL  string
	Root string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document shape %q at %s", e.Root, e.URL)
}
