// Package build precompiles the inline templates of every matching file in a
// project, writing the results to an output directory that mirrors the
// source tree.
package build

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/goccy/go-json"

	"bennypowers.dev/hbsip/internal/config"
	"bennypowers.dev/hbsip/internal/log"
	"bennypowers.dev/hbsip/internal/transform"
	"bennypowers.dev/hbsip/internal/version"
)

// Options configures Run
type Options struct {
	// Root is the project directory; patterns and outputs are relative to it
	Root string
	// Config supplies patterns and the output directory
	Config *config.Config
	// Plugin performs the transform
	Plugin *transform.Plugin
	// Workers bounds concurrency; zero means runtime.NumCPU()
	Workers int
}

// FileResult describes one processed file
type FileResult struct {
	Path         string `json:"path"`
	Output       string `json:"output,omitempty"`
	Changed      bool   `json:"changed"`
	Replacements int    `json:"replacements"`
	Error        string `json:"error,omitempty"`
}

// Report summarizes a Run
type Report struct {
	Version string       `json:"version"`
	Root    string       `json:"root"`
	OutDir  string       `json:"outDir"`
	Files   []FileResult `json:"files"`
}

// Failed counts files that could not be transformed
func (r *Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}

// Changed counts files whose output differs from their source
func (r *Report) Changed() int {
	n := 0
	for _, f := range r.Files {
		if f.Changed {
			n++
		}
	}
	return n
}

// WriteJSON writes the report as indented JSON
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Run discovers and transforms the project's files. Every file is attempted;
// the returned error joins the failures, and the report is returned either way.
func Run(opts Options) (*Report, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	plugin := opts.Plugin
	if plugin == nil {
		plugin = transform.New(transform.Options{})
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	outDir := cfg.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}

	log.Info("Transforming files from: %s", root)
	files, err := Discover(root, cfg.Include, cfg.Exclude, outDir)
	if err != nil {
		return nil, err
	}
	log.Info("Found %d files", len(files))

	report := &Report{
		Version: version.String(),
		Root:    root,
		OutDir:  outDir,
		Files:   make([]FileResult, len(files)),
	}
	errs := make([]error, len(files))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range min(workers, max(len(files), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				report.Files[i], errs[i] = processFile(plugin, root, outDir, files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	log.Info("Transformed %d files, %d changed, %d failed", len(files), report.Changed(), report.Failed())
	return report, errors.Join(errs...)
}

func processFile(plugin *transform.Plugin, root, outDir, relPath string) (FileResult, error) {
	result := FileResult{Path: filepath.ToSlash(relPath)}
	fail := func(err error) (FileResult, error) {
		log.Error("%s: %v", relPath, err)
		result.Error = err.Error()
		return result, fmt.Errorf("failed to transform %s: %w", relPath, err)
	}

	srcPath := filepath.Join(root, relPath)
	source, err := os.ReadFile(srcPath) //nolint:gosec // G304: discovered under the project root
	if err != nil {
		return fail(err)
	}

	transformed, err := plugin.TransformFile(srcPath, source)
	if err != nil {
		return fail(err)
	}

	outPath := filepath.Join(outDir, relPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil { //nolint:gosec // G301: build output is world-readable
		return fail(err)
	}
	if err := os.WriteFile(outPath, []byte(transformed.Code), 0o644); err != nil { //nolint:gosec // G306: build output is world-readable
		return fail(err)
	}

	result.Output = outPath
	result.Changed = transformed.Changed
	result.Replacements = transformed.Replacements
	if transformed.Changed {
		log.Info("Wrote: %s", outPath)
	} else {
		log.Debug("Copied: %s", outPath)
	}
	return result, nil
}
