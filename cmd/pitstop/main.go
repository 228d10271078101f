package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/openrover.go/pkg/pitstop"
)

func init() {
	pitstop.SetupFlags()
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Reflash the OpenRover firmware, check its version and update settings.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "\nSettings (-u k:v): %s\n", pitstop.SettingsHelp())
	}
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	err := pitstop.NewConfig().NewTool().Run(context.Background())
	switch err {
	case nil:
		fmt.Println(pitstop.Banner)
	case pitstop.ErrNoAction:
		fmt.Fprintln(flag.CommandLine.Output(), err)
		flag.Usage()
		os.Exit(2)
	default:
		log.Fatalln(err)
	}
}
