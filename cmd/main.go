package main

import (
	"log"

	"f1decode/app/listen"
	"f1decode/app/replay"
	"f1decode/pkg/cli"
)

func main() {
	c := cli.NewCLI(
		"f1decode",
		"Decode racing sim UDP telemetry into correlated per-tick frames.",
	)

	c.AddCommands(
		listen.NewCommand(),
		replay.NewCommand(),
	)

	if err := c.Run(); err != nil {
		log.Fatal(err)
	}
}
