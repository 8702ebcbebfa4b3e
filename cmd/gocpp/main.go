package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/hawkridge/gocpp/pkg/cpp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var version = "0.1.0"

// Preprocessor options bound to CLI flags.
var (
	includePaths       []string
	defineFlags        []string
	undefineFlags      []string
	verbose            bool
	quiet              bool
	multiThreadedFlag  bool
	singleThreadedFlag bool
	showVersion        bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gocpp [files...]",
		Short:         "gocpp is a standalone C-family source preprocessor",
		Long:          `gocpp folds continuation lines, expands macros, evaluates conditional directives, and resolves #include, emitting a linearized preprocessed text stream.`,
		Args:          cobra.MinimumNArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(out, "gocpp %s\n", version)
				return nil
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			return runPreprocess(args, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringArrayVarP(&includePaths, "include-path", "I", nil, "Add directory to include search path")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "Define macro (NAME or NAME=VALUE)")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "Undefine macro")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose diagnostics")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the error message of each file that fails (the exit status still reports the failure)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false, "Print version and exit")
	rootCmd.Flags().BoolVar(&multiThreadedFlag, "multi-threaded", false, "Preprocess multiple input files concurrently")
	rootCmd.Flags().BoolVar(&singleThreadedFlag, "single-threaded", false, "Preprocess multiple input files in argument order (default)")

	return rootCmd
}

// rcConfig is the shape of an optional .gocpprc.yaml discovered in the
// working directory, merged with lower precedence than CLI flags.
type rcConfig struct {
	IncludePaths []string `yaml:"include_paths"`
	Defines      []string `yaml:"defines"`
}

func loadRCConfig(errOut io.Writer) rcConfig {
	data, err := os.ReadFile(".gocpprc.yaml")
	if err != nil {
		return rcConfig{}
	}
	var cfg rcConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(errOut, "gocpp: warning: ignoring malformed .gocpprc.yaml: %v\n", err)
		return rcConfig{}
	}
	return cfg
}

func runPreprocess(files []string, out, errOut io.Writer) error {
	cfg := loadRCConfig(errOut)

	opts := cpp.Options{
		IncludePaths: append(append([]string(nil), includePaths...), cfg.IncludePaths...),
		Defines:      append(append([]string(nil), cfg.Defines...), defineFlags...),
		Undefines:    undefineFlags,
	}
	if verbose {
		opts.DiagWriter = errOut
	}

	multiThreaded := multiThreadedFlag && !singleThreadedFlag
	results := preprocessAll(files, opts, multiThreaded)

	var firstErr error
	for i, r := range results {
		if r.err != nil {
			if !quiet {
				fmt.Fprintf(errOut, "gocpp: %s: %v\n", files[i], r.err)
			}
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		fmt.Fprint(out, r.output)
	}
	return firstErr
}

type fileResult struct {
	output string
	err    error
}

// preprocessAll preprocesses each file with its own Engine instance
// (engines share no state). When multiThreaded, files are processed
// concurrently bounded by GOMAXPROCS; results are always returned in
// argument order so output is deterministic regardless of completion
// order.
func preprocessAll(files []string, opts cpp.Options, multiThreaded bool) []fileResult {
	results := make([]fileResult, len(files))

	preprocessOne := func(i int) {
		engine := cpp.NewEngine(opts)
		output, err := engine.PreprocessFile(filepath.Clean(files[i]))
		results[i] = fileResult{output: output, err: err}
	}

	if !multiThreaded || len(files) < 2 {
		for i := range files {
			preprocessOne(i)
		}
		return results
	}

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			preprocessOne(i)
		}(i)
	}
	wg.Wait()
	return results
}
