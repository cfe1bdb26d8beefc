package cli

import (
	"fmt"
	"io"

	"github.com/yandex/hvdf/lib/monitoring"
)

const countersPrefix = "hvdf."

// writeCounters writes published hvdf counters, one per line.
func writeCounters(w io.Writer) error {
	for _, c := range monitoring.Counters(countersPrefix) {
		if _, err := fmt.Fprintf(w, "%s %d\n", c.Name, c.Value); err != nil {
			return err
		}
	}
	return nil
}
