// Command hbs-inline-precompile precompiles inline Handlebars templates in
// JavaScript modules ahead of time.
//
// With file arguments it transforms those files, printing a lone file to
// stdout unless -out is given. Without arguments it transforms every
// matching file under -root as configured in package.json or .config/.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bennypowers.dev/hbsip/internal/build"
	"bennypowers.dev/hbsip/internal/config"
	"bennypowers.dev/hbsip/internal/log"
	"bennypowers.dev/hbsip/internal/precompile"
	"bennypowers.dev/hbsip/internal/transform"
	"bennypowers.dev/hbsip/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("hbs-inline-precompile", flag.ContinueOnError)
	flags.SetOutput(stderr)
	root := flags.String("root", ".", "project root holding package.json")
	out := flags.String("out", "", "output directory (overrides outDir)")
	compiler := flags.String("compiler", "", "precompiler backend: native or node")
	node := flags.String("node", "", "node binary for the node backend")
	reportPath := flags.String("report", "", "write a JSON build report to this file (- for stdout)")
	verbose := flags.Bool("v", false, "log every file")
	showVersion := flags.Bool("version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	log.SetOutput(stderr)
	defer log.SetLevel(log.GetLevel())

	cfg, err := config.Load(*root)
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		return 1
	}
	if *out != "" {
		cfg.OutDir = *out
	}
	if *compiler != "" {
		cfg.Compiler = *compiler
	}
	if *node != "" {
		cfg.NodeBinary = *node
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid options: %v", err)
		return 1
	}
	log.SetLevel(cfg.Level())
	if *verbose {
		log.SetLevel(log.LevelDebug)
	}

	precompiler, err := precompile.New(cfg.Compiler, cfg.NodeBinary, *root)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	plugin := transform.New(transform.Options{Precompiler: precompiler})

	if files := flags.Args(); len(files) > 0 {
		toStdout := len(files) == 1 && *out == ""
		return transformFiles(plugin, files, *root, cfg.OutDir, toStdout, stdout)
	}

	report, err := build.Run(build.Options{Root: *root, Config: cfg, Plugin: plugin})
	if report != nil && *reportPath != "" {
		if werr := writeReport(report, *reportPath, stdout); werr != nil {
			log.Error("Failed to write report: %v", werr)
			return 1
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// transformFiles handles explicit file arguments. Outputs keep their path
// relative to root under outDir; files outside root keep only their name.
func transformFiles(plugin *transform.Plugin, files []string, root, outDir string, toStdout bool, stdout io.Writer) int {
	status := 0
	for _, file := range files {
		source, err := os.ReadFile(file) //nolint:gosec // G304: paths are command-line arguments
		if err != nil {
			log.Error("%v", err)
			status = 1
			continue
		}
		result, err := plugin.TransformFile(file, source)
		if err != nil {
			log.Error("%v", err)
			status = 1
			continue
		}
		if toStdout {
			fmt.Fprint(stdout, result.Code)
			continue
		}

		outPath := filepath.Join(resolve(root, outDir), outputName(root, file))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil { //nolint:gosec // G301: build output is world-readable
			log.Error("%v", err)
			status = 1
			continue
		}
		if err := os.WriteFile(outPath, []byte(result.Code), 0o644); err != nil { //nolint:gosec // G306: build output is world-readable
			log.Error("%v", err)
			status = 1
			continue
		}
		log.Info("Wrote: %s", outPath)
	}
	return status
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func outputName(root, file string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(file)
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return filepath.Base(file)
	}
	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(file)
	}
	return rel
}

func writeReport(report *build.Report, path string, stdout io.Writer) error {
	if path == "-" {
		return report.WriteJSON(stdout)
	}
	f, err := os.Create(path) //nolint:gosec // G304: path is a command-line argument
	if err != nil {
		return err
	}
	if err := report.WriteJSON(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
