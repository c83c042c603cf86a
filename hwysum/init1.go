package main

import (
	. "github.com/spf13/pflag"
	"os"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

const n = "\n"

var pAlg, pNoCodesDefault = "", false
var pHelp, pBase64, pKeyed, pNoCodes, pQuiet, pString, pTime bool
var yell, purp, und, zero = "\033[33m", "\033[35m", "\033[4m", "\033[0m"

func init() {
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--no-codes=false":
			pNoCodes = false
		case "--quiet", "--quiet=true":
			pNoCodes, pQuiet = true, true
		case "--no-codes", "--no-codes=true":
			pNoCodes = true
		}
	}
	if pNoCodes {
		yell, purp, und, zero = "", "", "", ""
	}

	BoolVarP(&pHelp, "help", "h", false,
		purp+"print this help menu"+zero+n)

	StringVarP(&pAlg, "algorithm", "a", "highway64",
		purp+"highway64|highway128|highway256|siphash|siphash13|siptree"+zero)

	BoolVarP(&pBase64, "base64", "b", false,
		purp+"render digests in base64"+zero+" (default hex)")

	BoolVarP(&pKeyed, "keyed", "K", false,
		purp+"use the first 32 bytes of STDIN for keyed hashing"+zero)

	Bool("no-codes", pNoCodesDefault,
		purp+"print to console w/o formatting codes or simplified"+zero+
			n+purp+"filepaths"+zero)

	Bool("quiet", false,
		purp+"print ONLY digests or breaking errors"+zero)

	BoolVarP(&pString, "string", "s", false,
		purp+"process arguments instead as strings to be hashed"+zero)

	BoolVarP(&pTime, "time", "t", false,
		purp+"print time taken to process each message"+zero)

	/* Ordered alphabetically except for help, which is hoisted to the top. */
	CommandLine.SortFlags = false
	Parse()
}
