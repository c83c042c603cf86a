package main

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	. "fmt"
	"github.com/p7r0x7/highway"
	"github.com/p7r0x7/highway/siphash"
	"github.com/p7r0x7/vainpath"
	"github.com/spf13/pflag"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// This program is a command-line interface for highway and siphash: It handles various flags and
// an unlimited number of arguments, processing files as required by the command-line operator.

const success, failure, invalid = 0, 1, 2

var key [32]byte
var readErrs int

func main() { os.Exit(program()) }

// help prints a usage menu; program calls it and exits successfully when -h is set or no non-flag
// arguments are given. To consistently
// correctly render this menu in most terminal windows, its content should be no wider than 80
// columns.
func help() {
	origin, err := os.Executable()
	if err != nil {
		origin = "hwysum" /* Default binary name */
	} else {
		origin = filepath.Base(origin)
	}
	name := vainpath.Trim(origin, "…", 12)
	Fprint(os.Stderr, yell, "Keyed hashing at the speed limit.", zero, n+n+
		"Usage:"+n+
		"  ", name, " [-h]"+n,
		"          [-bKt] [-a <alg>] [--quiet|no-codes] -|PATH..."+n,
		"          [-bKt] [-a <alg>] [--quiet|no-codes] -s STRING..."+n+n+
			"Options:"+n)
	pflag.PrintDefaults()
	Fprint(os.Stderr, n+"Order of arguments placed after `", name, "` does not matter unless `--` is"+
		n+"specified, signaling the end of parsed flags. Long-form flag equivalents are"+n+
		"above. `-` is treated as a reference to ", os.Stdin.Name(), " on this platform."+n)
}

func warn(err error) {
	readErrs++
	if !pQuiet {
		Fprintln(os.Stderr, purp+err.Error()+zero)
	}
}

func digest(msg []byte) []byte {
	var k4 highway.Key
	for i := range k4 {
		k4[i] = binary.LittleEndian.Uint64(key[i*8:])
	}

	var sum [32]byte
	switch pAlg {
	case "highway64":
		binary.LittleEndian.PutUint64(sum[:], highway.Hash64(k4, msg))
		return sum[:8]
	case "highway128":
		r := highway.Hash128(k4, msg)
		binary.LittleEndian.PutUint64(sum[0:], r[0])
		binary.LittleEndian.PutUint64(sum[8:], r[1])
		return sum[:16]
	case "highway256":
		r := highway.Hash256(k4, msg)
		for i := range r {
			binary.LittleEndian.PutUint64(sum[i*8:], r[i])
		}
		return sum[:32]
	case "siphash":
		binary.LittleEndian.PutUint64(sum[:], siphash.Sum64(siphash.Key{k4[0], k4[1]}, msg))
		return sum[:8]
	case "siphash13":
		binary.LittleEndian.PutUint64(sum[:], siphash.Sum13(siphash.Key{k4[0], k4[1]}, msg))
		return sum[:8]
	case "siptree":
		binary.LittleEndian.PutUint64(sum[:], siphash.TreeSum64(k4, msg))
		return sum[:8]
	}
	return nil
}

func program() int {
	if pHelp || pflag.NArg() == 0 {
		help()
		return success
	}
	if digest(nil) == nil {
		Fprintln(os.Stderr, purp+"Unknown algorithm: "+pAlg+zero)
		return invalid
	}

	if pKeyed {
		if _, err := io.ReadAtLeast(os.Stdin, key[:], len(key)); err != nil {
			panic(err)
		}
		go os.Stdin.Close() /* STDIN should not be reused. */
	}

	exitCode := success
	for _, target := range pflag.Args() {
		var msg []byte
		var err error
		switch {
		/* The order of these cases is very important. */
		case pString:
			msg = []byte(target)
		case target == "-":
			msg, err = io.ReadAll(os.Stdin)
		default:
			msg, err = os.ReadFile(target)
		}
		if err != nil {
			warn(err)
			exitCode = failure
			continue
		}

		start := time.Now()
		sum := digest(msg)
		delta := time.Since(start).String()

		str := hex.EncodeToString(sum)
		if pBase64 {
			str = base64.StdEncoding.EncodeToString(sum)
		}
		if pString {
			target = zero + "\"" + target + "\""
		} else {
			target = vainpath.Simplify(target)
		}
		switch {
		case pQuiet:
			Println(str)
		case pTime:
			Println(yell + str + zero + "  " + und + target + zero + ", (" + delta + ")")
		default:
			Println(yell + str + zero + "  " + und + target + zero)
		}
	}

	if !pQuiet {
		switch {
		case readErrs == 1:
			Fprintln(os.Stderr, "1 "+purp+"target is a directory or is otherwise inaccessible."+zero)
		case readErrs > 1:
			Fprintln(os.Stderr, Sprint(readErrs)+" "+purp+"targets are directories or are otherwise inaccessible."+zero)
		}
	}
	return exitCode
}
