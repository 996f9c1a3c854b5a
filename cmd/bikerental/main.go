// Command bikerental trains, evaluates and serves the rental-type classifier.
//
//	$ bikerental generate -out data/bike_sharing.csv -n 1000 -seed 42
//	$ bikerental train -config train.yaml -roc models/roc.png
//	$ bikerental evaluate -model models/bike_rental_model.gob -data data/holdout.csv
//	$ bikerental predict -model models/bike_rental_model.gob -season 3 -month 7 -hour 17 ...
package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
)

func rootCmd() *commander.Command {
	return &commander.Command{
		UsageLine: "bikerental <command> [options]",
		Short:     "bike rental type classifier",
		Subcommands: []*commander.Command{
			trainCmd(),
			evaluateCmd(),
			predictCmd(),
			generateCmd(),
		},
	}
}

func main() {
	if err := rootCmd().Dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}
