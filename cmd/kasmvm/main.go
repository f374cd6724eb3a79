// Command kasmvm loads a KASM text file and runs one of its labels.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/p0lyh3dron/KAPPAlib-sub000/internal/cliutil"
	"github.com/p0lyh3dron/KAPPAlib-sub000/kasm"
	"github.com/p0lyh3dron/KAPPAlib-sub000/vm"
)

var (
	entry   string
	argList string
	memSize int
	disasm  bool
	debug   bool
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

func parseArgs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	args := make([]int64, len(fields))
	for i, f := range fields {
		n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid argument %q", f)
		}
		args[i] = n
	}
	return args, nil
}

func main() {
	var err error
	defer func() { atExit(err) }()

	flag.StringVar(&entry, "entry", "main", "label to `run`")
	flag.StringVar(&argList, "args", "", "comma-separated int64 arguments to push before calling entry")
	flag.IntVar(&memSize, "memsize", 0, "VM memory size in bytes (0 uses the default)")
	flag.BoolVar(&disasm, "disasm", false, "print the disassembled program before running it")
	flag.BoolVar(&debug, "debug", false, "print full error causes")
	flag.Parse()

	if flag.NArg() != 1 {
		err = errors.New("usage: kasmvm [-entry label] [-args a,b,c] file.kasm")
		return
	}

	var src []byte
	src, err = ioutil.ReadFile(flag.Arg(0))
	if err != nil {
		err = errors.Wrap(err, "reading KASM file")
		return
	}

	prog, lerr := kasm.Load(string(src))
	if lerr != nil {
		err = errors.Wrap(lerr, "loading KASM")
		return
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()
	ew := cliutil.NewErrWriter(stdout)

	if disasm {
		fmt.Fprint(ew, kasm.Disassemble(prog))
		if ew.Err != nil {
			err = ew.Err
			return
		}
	}

	var opts []vm.Option
	if memSize > 0 {
		opts = append(opts, vm.MemorySize(memSize))
	}
	i, verr := vm.New(prog, opts...)
	if verr != nil {
		err = errors.Wrap(verr, "creating VM instance")
		return
	}

	args, aerr := parseArgs(argList)
	if aerr != nil {
		err = aerr
		return
	}

	result, rerr := i.Run(entry, args...)
	if rerr != nil {
		err = errors.Wrapf(rerr, "running %q", entry)
		return
	}
	fmt.Fprintf(ew, "%v\n", result)
	err = ew.Err
}
