// Command kappac compiles a KAPPA source file to KASM text.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/lexer"
	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/parser"
	"github.com/p0lyh3dron/KAPPAlib-sub000/kasm"
)

var (
	outFileName string
	debug       bool
)

func atExit(err error) {
	if err == nil {
		return
	}
	if debug {
		fmt.Fprintf(os.Stderr, "\n%+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
	}
	os.Exit(1)
}

func main() {
	var err error
	defer func() { atExit(err) }()

	flag.StringVar(&outFileName, "o", "", "write KASM text to `filename` instead of stdout")
	flag.BoolVar(&debug, "debug", false, "print full error causes")
	flag.Parse()

	if flag.NArg() != 1 {
		err = errors.New("usage: kappac [-o filename] source.kappa")
		return
	}

	var src []byte
	src, err = ioutil.ReadFile(flag.Arg(0))
	if err != nil {
		err = errors.Wrap(err, "reading source file")
		return
	}

	toklist, lerr := lexer.Tokenize(string(src))
	if lerr != nil {
		err = errors.Wrap(lerr, "tokenizing source")
		return
	}

	prog, perr := parser.Parse(toklist)
	if perr != nil {
		err = errors.Wrap(perr, "parsing source")
		return
	}

	out, cerr := kasm.Compile(prog)
	if cerr != nil {
		err = errors.Wrap(cerr, "compiling to KASM")
		return
	}

	if outFileName == "" {
		_, err = fmt.Fprint(os.Stdout, out)
		return
	}
	err = ioutil.WriteFile(outFileName, []byte(out), 0644)
	if err != nil {
		err = errors.Wrap(err, "writing KASM output")
	}
}
