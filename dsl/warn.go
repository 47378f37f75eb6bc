package dsl

import (
	"fmt"
	"log"
)

// WarnHandler receives non-fatal compile warnings (ambiguous field-override
// annotations, default-based type inference for bare final declarations,
// implicit struct conversion). Replace it to route warnings elsewhere; set it
// to a no-op to silence them.
var WarnHandler = func(msg string) { log.Print("recschema: warning: ", msg) }

func warnf(format string, args ...any) {
	if WarnHandler != nil {
		WarnHandler(fmt.Sprintf(format, args...))
	}
}
