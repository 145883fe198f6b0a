package main

import (
	"fmt"
	"os"
	_ "time/tzdata" // timeZone must resolve on hosts without a zoneinfo db
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
