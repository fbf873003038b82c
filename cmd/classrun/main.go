// classrun decodes a compiled class file and runs one of its static methods.
package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/classrun/manifest"
	"github.com/chazu/classrun/pkg/classfile"
	"github.com/chazu/classrun/server"
	"github.com/chazu/classrun/store"
	"github.com/chazu/classrun/vm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	config   string
	method   string
	verbose  int
	trace    bool
	disasm   bool
	inspect  bool
	store    string
	noStore  bool
	history  bool
	list     bool
	serve    bool
	addr     string
	remote   string
	explicit map[string]bool
}

func parseArgs(args []string, stderr io.Writer) (*options, []string, error) {
	fs := flag.NewFlagSet("classrun", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{explicit: map[string]bool{}}
	fs.StringVar(&opts.config, "config", "", "Path to classrun.toml (default: search upward from the working directory)")
	fs.StringVar(&opts.method, "m", "", "Method to run (default from config, else 'main')")
	fs.IntVar(&opts.verbose, "v", 0, "Log verbosity (1 = info, 2 = debug)")
	fs.BoolVar(&opts.trace, "trace", false, "Log every executed instruction (implies -v 2)")
	fs.BoolVar(&opts.disasm, "disasm", false, "List the method's bytecode instead of running it")
	fs.BoolVar(&opts.inspect, "inspect", false, "Describe the class and list every method")
	fs.StringVar(&opts.store, "store", "", "Record the class and the run in this database")
	fs.BoolVar(&opts.noStore, "no-store", false, "Do not record the class or the run, even if configured")
	fs.BoolVar(&opts.history, "history", false, "Show recorded runs of the class")
	fs.BoolVar(&opts.list, "list", false, "List the classes in the store")
	fs.BoolVar(&opts.serve, "serve", false, "Start the RPC server")
	fs.StringVar(&opts.addr, "addr", "", "RPC server address (used with -serve)")
	fs.StringVar(&opts.remote, "remote", "", "Run or inspect on a remote server (e.g. http://localhost:4567)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: classrun [options] <file.class> [method]\n\n")
		fmt.Fprintf(stderr, "Decodes a class file and runs one of its static methods.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  classrun Hello.class              # Run Hello.main\n")
		fmt.Fprintf(stderr, "  classrun Hello.class greet        # Run Hello.greet\n")
		fmt.Fprintf(stderr, "  classrun -disasm Hello.class      # List main's bytecode\n")
		fmt.Fprintf(stderr, "  classrun -inspect Hello.class     # Describe the class\n")
		fmt.Fprintf(stderr, "  classrun -store runs.db Hello.class  # Run and record\n")
		fmt.Fprintf(stderr, "  classrun -history Hello.class     # Show recorded runs\n")
		fmt.Fprintf(stderr, "  classrun -list                    # List stored classes\n")
		fmt.Fprintf(stderr, "\nServer:\n")
		fmt.Fprintf(stderr, "  classrun -serve                   # Serve on :4567\n")
		fmt.Fprintf(stderr, "  classrun -remote http://host:4567 Hello.class\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.explicit[f.Name] = true })
	return opts, fs.Args(), nil
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(opts *options) (*manifest.Manifest, error) {
	var m *manifest.Manifest
	var err error
	if opts.config != "" {
		m, err = manifest.LoadFile(opts.config)
	} else {
		m, err = manifest.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}

	if opts.method != "" {
		m.Run.Method = opts.method
	}
	if opts.explicit["v"] {
		m.Log.Verbosity = opts.verbose
	}
	if opts.explicit["trace"] {
		m.Run.Trace = opts.trace
	}
	if m.Run.Trace && m.Log.Verbosity < 2 {
		m.Log.Verbosity = 2
	}
	if opts.store != "" {
		m.Store.Path = opts.store
		m.Store.Enabled = true
	}
	if opts.serve {
		m.Store.Enabled = true
	}
	if opts.noStore {
		m.Store.Enabled = false
	}
	if opts.addr != "" {
		m.Server.Addr = opts.addr
	}
	return m, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "classrun: %v\n", err)
		return 1
	}

	var logPath *string
	if path := cfg.LogFile(); path != "" {
		logPath = &path
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	switch {
	case opts.serve:
		return serve(cfg, stderr)
	case opts.list:
		return list(cfg, stdout, stderr)
	}

	if len(rest) < 1 || len(rest) > 2 {
		fmt.Fprintf(stderr, "classrun: expected <file.class> [method]\n")
		return 2
	}
	path := rest[0]
	if len(rest) == 2 {
		cfg.Run.Method = rest[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "classrun: %v\n", err)
		return 1
	}

	switch {
	case opts.history:
		return history(cfg, data, stdout, stderr)
	case opts.remote != "":
		return remote(opts, cfg, data, stdout, stderr)
	}

	cf, err := classfile.Decode(data)
	if err != nil {
		fmt.Fprintf(stderr, "classrun: %s: %v\n", path, err)
		return 1
	}

	switch {
	case opts.inspect:
		printSummary(stdout, classfile.Summarize(cf, data))
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, vm.DisassembleClass(cf))
		return 0
	case opts.disasm:
		code, err := cf.MethodCode(cfg.Run.Method)
		if err != nil {
			fmt.Fprintf(stderr, "classrun: %s: %v\n", path, err)
			return 1
		}
		fmt.Fprint(stdout, vm.Disassemble(cf, code.Bytecode))
		return 0
	}

	return execute(cfg, path, data, cf, stdout, stderr)
}

// execute runs the configured method locally and records the run.
func execute(cfg *manifest.Manifest, path string, data []byte, cf *classfile.ClassFile, stdout, stderr io.Writer) int {
	log := commonlog.GetLogger("classrun")
	method := cfg.Run.Method

	// Nothing runs when the method or its code is missing.
	if _, err := cf.MethodCode(method); err != nil {
		fmt.Fprintf(stderr, "classrun: %s: %v\n", path, err)
		return 1
	}

	var captured bytes.Buffer
	interp := vm.New(cf,
		vm.WithOutput(io.MultiWriter(stdout, &captured)),
		vm.WithTrace(cfg.Run.Trace),
	)
	runErr := interp.Run(method)

	if cfg.Store.Enabled {
		if err := recordRun(cfg, data, cf, method, captured.String(), runErr); err != nil {
			log.Warningf("not recorded: %v", err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(stderr, "classrun: %s.%s: %v\n", className(cf), method, runErr)
		return 1
	}
	return 0
}

func recordRun(cfg *manifest.Manifest, data []byte, cf *classfile.ClassFile, method, output string, runErr error) error {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := st.PutClass(data, cf)
	if err != nil {
		return err
	}
	r := store.Run{Hash: store.HashKey(sum.Hash), Method: method, Output: output}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return st.RecordRun(r)
}

func history(cfg *manifest.Manifest, data []byte, stdout, stderr io.Writer) int {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		fmt.Fprintf(stderr, "classrun: %v\n", err)
		return 1
	}
	defer st.Close()

	key := store.HashKey(sha256.Sum256(data))
	runs, err := st.Runs(key)
	if err != nil {
		fmt.Fprintf(stderr, "classrun: %v\n", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Fprintf(stdout, "no runs recorded for %s\n", key)
		return 0
	}
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "error: " + r.Error
		}
		fmt.Fprintf(stdout, "%s  %-16s %s\n", r.At.Format(time.RFC3339), r.Method, status)
	}
	return 0
}

func list(cfg *manifest.Manifest, stdout, stderr io.Writer) int {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		fmt.Fprintf(stderr, "classrun: %v\n", err)
		return 1
	}
	defer st.Close()

	sums, err := st.Summaries()
	if err != nil {
		fmt.Fprintf(stderr, "classrun: %v\n", err)
		return 1
	}
	for _, s := range sums {
		fmt.Fprintf(stdout, "%s  %-32s %d methods\n", store.HashKey(s.Hash)[:12], s.ClassName, len(s.Methods))
	}
	return 0
}

func remote(opts *options, cfg *manifest.Manifest, data []byte, stdout, stderr io.Writer) int {
	client := server.NewClient(http.DefaultClient, opts.remote)
	ctx := context.Background()

	if opts.inspect || opts.disasm {
		resp, err := client.Inspect(ctx, data)
		if err != nil {
			fmt.Fprintf(stderr, "classrun: %v\n", err)
			return 1
		}
		printSummary(stdout, resp.Summary)
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, resp.Listing)
		return 0
	}

	resp, err := client.Run(ctx, data, cfg.Run.Method)
	if err != nil {
		fmt.Fprintf(stderr, "classrun: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, resp.Output)
	if resp.Error != "" {
		fmt.Fprintf(stderr, "classrun: %s\n", resp.Error)
		return 1
	}
	return 0
}

func serve(cfg *manifest.Manifest, stderr io.Writer) int {
	opts := []server.ServerOption{server.WithTrace(cfg.Run.Trace)}
	if cfg.Store.Enabled {
		st, err := store.Open(cfg.StorePath())
		if err != nil {
			fmt.Fprintf(stderr, "classrun: %v\n", err)
			return 1
		}
		defer st.Close()
		opts = append(opts, server.WithStore(st))
	}

	if err := server.New(opts...).ListenAndServe(cfg.Server.Addr); err != nil {
		fmt.Fprintf(stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}

func printSummary(w io.Writer, s classfile.Summary) {
	fmt.Fprintf(w, "class %s", s.ClassName)
	if s.SuperName != "" {
		fmt.Fprintf(w, " extends %s", s.SuperName)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  version %d.%d, flags %s (%s), %d constants\n",
		s.Major, s.Minor, s.AccessFlags, strings.Join(classfile.ClassFlagNames(s.AccessFlags), " "), s.Constants)
	fmt.Fprintf(w, "  sha256 %s\n", store.HashKey(s.Hash))
}

func className(cf *classfile.ClassFile) string {
	if name, err := cf.ThisClassName(); err == nil {
		return name
	}
	return "?"
}
