// Command featureflow runs the feature request chat bot and inspects its
// durable state.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
