package logging

import (
	"log"
	"os"
)

func init() {
	// Set the global logger to use standard error, leaving standard output
	// free for diff/apply/verify summaries.
	log.SetOutput(os.Stderr)
}
