// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/ezrec/collate/topology"
	"github.com/ezrec/collate/translate"
)

func main() {
	var script string
	var capacity int
	var groups int
	var lang string
	var opts options

	flag.StringVar(&script, "t", "", ".star topology script to use")
	flag.IntVar(&capacity, "c", 0, "Channel capacity (overrides topology)")
	flag.IntVar(&groups, "g", -1, "Header groups (overrides topology)")
	flag.StringVar(&opts.Mode, "m", MODE_COOP, "Scheduler: coop or goroutine")
	flag.StringVar(&lang, "lang", "", "Message language (default from locale)")
	flag.DurationVar(&opts.Sleep, "y", 10*time.Microsecond, "Yield to the host between ticks")
	flag.BoolVar(&opts.Stats, "s", false, "Log channel and scheduler metrics at exit")
	flag.BoolVar(&opts.Verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(lang) != 0 {
		translate.Use(lang)
	}

	topo := topology.Reference()
	if len(script) != 0 {
		var err error
		topo, err = topology.Load(script, nil)
		if err != nil {
			log.Fatal(err)
		}
	}
	if capacity > 0 {
		topo.Capacity = capacity
	}
	if groups >= 0 {
		topo.Groups = groups
	}

	err := run(context.Background(), topo, opts, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
}
