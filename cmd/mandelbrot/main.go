// Command mandelbrot renders the Mandelbrot set to the terminal by
// driving a KAPPA escape function through the KASM VM once per pixel.
// The function is read from the -source file (default
// examples/mandelbrot.kappa, which this repository does not include).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/cliutil"
	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/lexer"
	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/parser"
	"github.com/p0lyh3dron/KAPPAlib-sub000/kasm"
	"github.com/p0lyh3dron/KAPPAlib-sub000/vm"
)

// fixedScale is the fixed-point scale factor the cx/cy arguments are
// passed to the escape function in.
const fixedScale = 1000

// ramp shades iteration counts from "just escaped" (sparse) to "never
// escaped" (dense), darkest last.
const ramp = " .:-=+*#%@"

var (
	sourceFile             string
	width, height          int
	maxIter                int
	xmin, xmax, ymin, ymax float64
	debug                  bool
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

func loadProgram(path string) (*kasm.Program, error) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading source file")
	}
	toks, err := lexer.Tokenize(string(src))
	if err != nil {
		return nil, errors.Wrap(err, "tokenizing source")
	}
	ast, err := parser.Parse(toks)
	if err != nil {
		return nil, errors.Wrap(err, "parsing source")
	}
	kasmText, err := kasm.Compile(ast)
	if err != nil {
		return nil, errors.Wrap(err, "compiling to KASM")
	}
	prog, err := kasm.Load(kasmText)
	if err != nil {
		return nil, errors.Wrap(err, "loading KASM")
	}
	return prog, nil
}

func shade(iter, maxIter int) byte {
	if iter >= maxIter {
		return ramp[len(ramp)-1]
	}
	idx := iter * (len(ramp) - 1) / maxIter
	return ramp[idx]
}

func main() {
	var err error
	defer func() { atExit(err) }()

	flag.StringVar(&sourceFile, "source", "examples/mandelbrot.kappa", "KAPPA `file` defining escape(cx, cy, maxiter)")
	flag.IntVar(&width, "width", 0, "render width in characters (0 autodetects the terminal width)")
	flag.IntVar(&height, "height", 0, "render height in characters (0 autodetects the terminal height)")
	flag.IntVar(&maxIter, "maxiter", 50, "maximum escape iterations per point")
	flag.Float64Var(&xmin, "xmin", -2.0, "real axis minimum")
	flag.Float64Var(&xmax, "xmax", 0.5, "real axis maximum")
	flag.Float64Var(&ymin, "ymin", -1.25, "imaginary axis minimum")
	flag.Float64Var(&ymax, "ymax", 1.25, "imaginary axis maximum")
	flag.BoolVar(&debug, "debug", false, "print full error causes")
	flag.Parse()

	if width <= 0 || height <= 0 {
		w, h := consoleSize(os.Stdout)
		if width <= 0 {
			width = w
		}
		if height <= 0 {
			height = h / 2 // character cells are roughly twice as tall as wide
		}
		if width <= 0 {
			width = 80
		}
		if height <= 0 {
			height = 25
		}
	}

	prog, lerr := loadProgram(sourceFile)
	if lerr != nil {
		err = lerr
		return
	}
	i, verr := vm.New(prog)
	if verr != nil {
		err = errors.Wrap(verr, "creating VM instance")
		return
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()
	ew := cliutil.NewErrWriter(stdout)

	row := make([]byte, width+1)
	row[width] = '\n'
	for py := 0; py < height; py++ {
		cy := ymin + (ymax-ymin)*float64(py)/float64(height-1)
		for px := 0; px < width; px++ {
			cx := xmin + (xmax-xmin)*float64(px)/float64(width-1)
			result, rerr := i.Run("escape", int64(cx*fixedScale), int64(cy*fixedScale), int64(maxIter))
			if rerr != nil {
				err = errors.Wrap(rerr, "running escape")
				return
			}
			row[px] = shade(int(result), maxIter)
		}
		ew.Write(row)
		if ew.Err != nil {
			err = ew.Err
			return
		}
	}
}
