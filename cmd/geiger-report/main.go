// geiger-report converts geiger-rng recordings into spreadsheets with a z-score chart.
//
// Usage:
//
//	geiger-report FILE [FILE...]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/geiger-rng/internal/report"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s FILE [FILE...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := 0
	for _, path := range flag.Args() {
		out, err := report.Run(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("report failed")
			failed++
			continue
		}
		log.Info().Str("file", path).Str("output", out).Msg("report written")
	}
	if failed > 0 {
		os.Exit(1)
	}
}
