// Command relay serves the command relay over HTTP.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := Run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("relay.failed")
	}
}
