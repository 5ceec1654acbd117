// cc20 - ChaCha20 file/stream encryption tool
//
// Copyright (c) 2018-2022 Russell Magee
// Licensed under the terms of the MIT license (see LICENSE.mit in this
// distribution)
//
// golang implementation by Russ Magee (rmagee_at_gmail.com)
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"blitter.com/go/chacha20"
	"blitter.com/go/chacha20/logger"
	isatty "github.com/mattn/go-isatty"
)

var (
	version   string
	gitCommit string // set in -ldflags by build

	// Log defaults to regular syslog output (no -d)
	Log *logger.Writer

	cpuprofile string
	memprofile string
)

// chunkSize is the unit the input is streamed in; any size works, the
// cipher buffers partial blocks across calls.
const chunkSize = 64 * 1024

func usage() {
	fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])       // nolint: errcheck
	fmt.Fprintf(os.Stderr, "%s [opts] [infile]\n", os.Args[0]) // nolint: errcheck
	fmt.Fprintf(os.Stderr, "XORs infile (default stdin) with the ChaCha keystream to the output\n"+
		"(-o file, default stdout). The same invocation encrypts and decrypts.\n") // nolint: errcheck
	flag.PrintDefaults()
}

// combine streams r through the cipher to w in chunkSize units, returning
// the number of bytes written.
func combine(c *chacha20.Cipher, w io.Writer, r io.Reader) (n uint64, err error) {
	buf := make([]byte, chunkSize)
	for {
		nr, rerr := r.Read(buf)
		if nr > 0 {
			c.XORKeyStream(buf[:nr], buf[:nr])
			nw, werr := w.Write(buf[:nr])
			n += uint64(nw)
			if werr != nil {
				return n, werr
			}
		}
		if rerr == io.EOF {
			return n, nil
		}
		if rerr != nil {
			return n, rerr
		}
	}
}

// generate emits count bytes of raw keystream to w, ignoring any input.
func generate(c *chacha20.Cipher, w io.Writer, count uint64) (n uint64, err error) {
	buf := make([]byte, chunkSize)
	for n < count {
		m := uint64(chunkSize)
		if count-n < m {
			m = count - n
		}
		c.KeyStream(buf[:m])
		nw, werr := w.Write(buf[:m])
		n += uint64(nw)
		if werr != nil {
			return n, werr
		}
	}
	return n, nil
}

// readKey fetches the hex key from the -k argument, or interactively with
// echo off when none was given (so keys need not appear in shell history or
// process listings). Prompting requires a free stdin: an input file, or -g
// mode which reads no input at all.
func readKey(keyHex string, canPrompt bool) ([]byte, error) {
	if keyHex == "" {
		if !canPrompt {
			return nil, fmt.Errorf("cannot prompt for key while reading data from stdin (use -k)")
		}
		fmt.Fprintf(os.Stderr, "Key(hex):") // nolint: errcheck
		kb, e := ReadPassword(os.Stdin.Fd())
		fmt.Fprintf(os.Stderr, "\r\n") // nolint: errcheck
		if e != nil {
			return nil, e
		}
		keyHex = string(kb)
		// Security scrub
		for i := range kb {
			kb[i] = 0
		}
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("key must be hex (16 or 32 bytes): %s", err)
	}
	return key, nil
}

func main() {
	var vopt bool
	var dbg bool
	var keyHex string
	var nonceHex string
	var rounds int
	var seekBlock uint64
	var genBytes uint64
	var outPath string
	var force bool

	flag.BoolVar(&vopt, "v", false, "show version")
	flag.BoolVar(&dbg, "d", false, "debug logging")
	flag.StringVar(&keyHex, "k", "", "`hexkey` - 16 or 32 bytes of hex (prompted for if omitted)")
	flag.StringVar(&nonceHex, "n", "", "`hexnonce` - 8 bytes of hex for original ChaCha, 12 for the IETF variant")
	flag.IntVar(&rounds, "r", chacha20.DefaultRounds, "`rounds` - even, 8..20 (original variant only)")
	flag.Uint64Var(&seekBlock, "s", 0, "seek to 64-byte `block` before processing")
	flag.Uint64Var(&genBytes, "g", 0, "emit `count` bytes of raw keystream instead of combining input")
	flag.StringVar(&outPath, "o", "", "output `file` (default stdout)")
	flag.BoolVar(&force, "f", false, "force raw output to a terminal")
	flag.StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to <`file`>")
	flag.StringVar(&memprofile, "memprofile", "", "write memory profile to <`file`>")
	flag.Usage = usage
	flag.Parse()

	if vopt {
		fmt.Printf("version %s (%s)\n", version, gitCommit)
		exitWithStatus(0)
	}

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close() // nolint: errcheck
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		} else {
			defer pprof.StopCPUProfile()
		}
	}

	Log, _ = logger.New(logger.LOG_USER|logger.LOG_DEBUG|logger.LOG_NOTICE|logger.LOG_ERR, "cc20") // nolint: errcheck,gosec
	if dbg && Log != nil {
		log.SetOutput(Log)
	} else {
		log.SetOutput(ioutil.Discard)
	}

	infile := flag.Arg(0)

	if nonceHex == "" {
		fmt.Fprintln(os.Stderr, "ERROR: must specify a nonce (-n)") // nolint: errcheck
		usage()
		exitWithStatus(1)
	}
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: nonce must be hex (8 or 12 bytes):", err) // nolint: errcheck
		exitWithStatus(1)
	}

	key, err := readKey(keyHex, infile != "" || genBytes > 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err) // nolint: errcheck
		exitWithStatus(1)
	}

	c, err := chacha20.NewCipherWithRounds(key, nonce, rounds)
	if err != nil {
		logger.LogErr(fmt.Sprintf("[config error: %s]", err)) // nolint: errcheck,gosec
		fmt.Fprintln(os.Stderr, "ERROR:", err)                // nolint: errcheck
		exitWithStatus(2)
	}

	// Security scrub
	for i := range key {
		key[i] = 0
	}
	runtime.GC()

	if seekBlock != 0 {
		if err = c.Seek(seekBlock); err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", err) // nolint: errcheck
			exitWithStatus(2)
		}
	}

	if dbg {
		logger.LogDebug(fmt.Sprintf("[cipher %s, seek %d]", c, seekBlock)) // nolint: errcheck,gosec
	}

	r := io.Reader(os.Stdin)
	if infile != "" {
		f, e := os.Open(infile)
		if e != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", e) // nolint: errcheck
			exitWithStatus(1)
		}
		defer f.Close() // nolint: errcheck
		r = f
	}

	w := io.Writer(os.Stdout)
	if outPath != "" {
		f, e := os.Create(outPath)
		if e != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", e) // nolint: errcheck
			exitWithStatus(1)
		}
		defer f.Close() // nolint: errcheck
		w = f
	} else if !force && isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "ERROR: refusing to write raw bytes to a terminal (use -o or -f)") // nolint: errcheck
		exitWithStatus(1)
	}

	var n uint64
	if genBytes > 0 {
		n, err = generate(c, w, genBytes)
	} else {
		n, err = combine(c, w, r)
	}
	if err != nil {
		logger.LogErr(fmt.Sprintf("[stream error after %d bytes: %s]", n, err)) // nolint: errcheck,gosec
		fmt.Fprintln(os.Stderr, "ERROR:", err)                                  // nolint: errcheck
		exitWithStatus(3)
	}

	logger.LogNotice(fmt.Sprintf("[%d bytes processed (%s)]", n, c)) // nolint: errcheck,gosec
	logger.LogClose()                                                // nolint: errcheck,gosec
	exitWithStatus(0)
}

// exitWithStatus wraps os.Exit() plus does any required pprof housekeeping
func exitWithStatus(status int) {
	if cpuprofile != "" {
		pprof.StopCPUProfile()
	}

	if memprofile != "" {
		f, err := os.Create(memprofile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		defer f.Close() // nolint: errcheck
		runtime.GC()    // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}

	os.Exit(status)
}
