package refgraph

import (
	"log"
	"os"
)

// Debug enables verbose logging of the resolve/crawl/dereference pipeline
// when the REFGRAPH_DEBUG environment variable is not empty.
var Debug = os.Getenv("REFGRAPH_DEBUG") != ""

func debugLog(format string, args ...any) {
	if Debug {
		log.Printf(format, args...)
	}
}
