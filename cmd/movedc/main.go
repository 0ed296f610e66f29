// movedc decompiles compiled Move modules and scripts back into source.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/movedc/cache"
	"github.com/chazu/movedc/config"
	"github.com/chazu/movedc/decompiler"
	"github.com/chazu/movedc/pkg/bytecode"
	"github.com/chazu/movedc/pkg/unit"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(1)
	}
}

// settings is the merged result of movedc.toml and the command line.
type settings struct {
	cfg     *config.Config
	outDir  string
	disasm  bool
	noCache bool
	refresh bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("movedc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configDir := fs.String("C", ".", "Directory to search for movedc.toml")
	light := fs.Bool("light", false, "Replace function bodies with 'abort 1'")
	offsets := fs.Bool("offsets", false, "Annotate statements with instruction offsets")
	indent := fs.Int("indent", 0, "Spaces per indentation level (default from config, 4)")
	workers := fs.Int("workers", 0, "Concurrent function translations (default GOMAXPROCS)")
	outDir := fs.String("o", "", "Write <name>.move files to this directory instead of stdout")
	disasm := fs.Bool("disasm", false, "Print the bytecode listing of every function")
	noCache := fs.Bool("no-cache", false, "Bypass the listing cache")
	refresh := fs.Bool("refresh", false, "Discard cached listings of the given units before decompiling")
	prune := fs.Duration("prune", 0, "Drop cached listings older than this (default from config)")
	verbosity := fs.Int("v", -1, "Log verbosity 0-4 (default from config)")
	quiet := fs.Bool("q", false, "Only print errors")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: movedc [options] <unit files...>\n\n")
		fmt.Fprintf(stderr, "Decompiles compiled Move units (CBOR containers) into Move source.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  movedc coin.mvu                # Print source to stdout\n")
		fmt.Fprintf(stderr, "  movedc -light build/*.mvu      # Signatures only\n")
		fmt.Fprintf(stderr, "  movedc -o src/ build/*.mvu     # Write one .move file per unit\n")
		fmt.Fprintf(stderr, "  movedc -disasm -offsets m.mvu  # Listing with offsets for debugging\n")
		fmt.Fprintf(stderr, "  movedc -prune 720h build/*.mvu # Drop cached listings older than 30 days\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	d := &display{w: stderr, quiet: *quiet}

	cfg, err := config.FindAndLoad(*configDir)
	if err != nil {
		d.fail("Config", err)
		return err
	}

	// Flags override config
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["light"] {
		cfg.Render.Light = *light
	}
	if set["offsets"] {
		cfg.Render.Offsets = *offsets
	}
	if set["indent"] {
		cfg.Render.Indent = *indent
	}
	if set["workers"] {
		cfg.Decompile.Workers = *workers
	}
	if set["prune"] {
		cfg.Cache.MaxAge = *prune
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	if err := cfg.Validate(); err != nil {
		d.fail("Config", err)
		return err
	}

	logPath := cfg.LogPath()
	if logPath == "" {
		commonlog.Configure(cfg.Log.Verbosity, nil)
	} else {
		commonlog.Configure(cfg.Log.Verbosity, &logPath)
	}

	paths := fs.Args()
	if len(paths) == 0 {
		fs.Usage()
		return errors.New("no unit files given")
	}

	s := settings{cfg: cfg, outDir: *outDir, disasm: *disasm, noCache: *noCache, refresh: *refresh}

	var store *cache.Cache
	if cfg.Cache.Enabled && !s.noCache && !s.disasm {
		store, err = cache.Open(cfg.CachePath())
		if err != nil {
			d.warn("Cache", err.Error())
		} else {
			defer store.Close()
			if cfg.Cache.MaxAge > 0 {
				pruneCache(ctx, store, cfg.Cache.MaxAge, d)
			}
		}
	}

	if s.outDir != "" {
		if err := os.MkdirAll(s.outDir, 0755); err != nil {
			d.fail("Output", err)
			return err
		}
	}

	var failed int
	for _, path := range paths {
		if err := processFile(ctx, path, s, store, stdout, d); err != nil {
			d.fail("Error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(paths))
	}
	return nil
}

func processFile(ctx context.Context, path string, s settings, store *cache.Cache, stdout io.Writer, d *display) error {
	u, err := unit.ReadFile(path)
	if err != nil {
		return err
	}

	var source string
	if s.disasm {
		source = disassemble(u)
	} else {
		source, err = decompileCached(ctx, u, s, store, d)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if s.outDir == "" {
		_, err := io.WriteString(stdout, source)
		return err
	}

	ext := ".move"
	if s.disasm {
		ext = ".dis"
	}
	out := filepath.Join(s.outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+ext)
	if err := os.WriteFile(out, []byte(source), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", out, err)
	}
	d.info("Wrote", out)
	return nil
}

// renderOptions identifies everything besides the unit that affects the
// rendered listing.
func renderOptions(cfg *config.Config) string {
	return fmt.Sprintf("indent=%d,offsets=%t,light=%t", cfg.Render.Indent, cfg.Render.Offsets, cfg.Render.Light)
}

// pruneCache drops listings older than maxAge and reports what is left.
func pruneCache(ctx context.Context, store *cache.Cache, maxAge time.Duration, d *display) {
	n, err := store.Prune(ctx, time.Now().Add(-maxAge))
	if err != nil {
		d.warn("Cache", err.Error())
		return
	}
	if n == 0 {
		return
	}
	left, err := store.Len(ctx)
	if err != nil {
		d.warn("Cache", err.Error())
		return
	}
	d.info("Pruned", fmt.Sprintf("%d listings older than %s, %d kept", n, maxAge, left))
}

func decompileCached(ctx context.Context, u *unit.Unit, s settings, store *cache.Cache, d *display) (string, error) {
	cfg := s.cfg
	var key cache.Key
	if store != nil {
		hash, err := unit.Hash(u)
		if err != nil {
			return "", err
		}
		if s.refresh {
			if _, err := store.Delete(ctx, hash); err != nil {
				d.warn("Cache", err.Error())
			}
		}
		key = cache.Key{Hash: hash, Options: renderOptions(cfg)}
		entry, err := store.Get(ctx, key)
		if err == nil {
			return entry.Source, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			d.warn("Cache", err.Error())
		}
	}

	su, err := decompiler.DecompileUnit(ctx, u, decompiler.Options{
		Light:   cfg.Render.Light,
		Workers: cfg.Decompile.Workers,
	})
	if err != nil {
		return "", err
	}
	p := &decompiler.Printer{Indent: cfg.Render.Indent, Offsets: cfg.Render.Offsets}
	source := p.Render(su)

	if store != nil {
		if err := store.Put(ctx, key, source); err != nil {
			d.warn("Cache", err.Error())
		}
	}
	return source, nil
}

// disassemble lists the bytecode of every function body in u.
func disassemble(u *unit.Unit) string {
	var sb strings.Builder
	if script, ok := u.ScriptCode(); ok {
		sb.WriteString(bytecode.DisassembleWithName("main", script.Code.Code))
		return sb.String()
	}
	for _, def := range u.FunctionDefs() {
		if def.IsNative() {
			continue
		}
		name := "?"
		if h, ok := u.FunctionHandle(def.Handle); ok {
			if n, ok := u.Identifier(h.Name); ok {
				name = n
			}
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(bytecode.DisassembleWithName(name, def.Code.Code))
	}
	return sb.String()
}
