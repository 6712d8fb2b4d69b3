package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logLevel  string
	logFormat string
}

// templateFlags selects the poster markup and its placeholder.
type templateFlags struct {
	posterType   string
	template     string
	templatesDir string
	token        string
}

// variantFlags holds the names a template is expanded with.
type variantFlags struct {
	names []string
	file  string
}

// outputFlags holds artifact naming and encoding flags.
type outputFlags struct {
	dir       string
	suffix    string
	format    string
	quality   int
	thumbnail int
}

// renderFlags holds rasterization flags.
type renderFlags struct {
	scale   float64
	timeout string
}

// batchFlags holds all flags for the batch command.
type batchFlags struct {
	common    commonFlags
	subject   string
	template  templateFlags
	variants  variantFlags
	output    outputFlags
	render    renderFlags
	history   string
	noHistory bool
	noUpload  bool
}

// parseFlags holds flags for the parse command.
type parseFlags struct {
	common     commonFlags
	posterType string
	format     string
	source     bool
	style      string
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common       commonFlags
	addr         string
	workers      int
	templatesDir string
	timeout      string
	history      string
	allowOrigins []string
}

// historyFlags holds flags for the history command.
type historyFlags struct {
	common commonFlags
	path   string
	limit  int
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log every task transition")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// addTemplateFlags adds template selection flags to a FlagSet.
func addTemplateFlags(fs *flag.FlagSet, f *templateFlags) {
	fs.StringVarP(&f.posterType, "type", "t", "", "poster type: general, invitation, wechat")
	fs.StringVar(&f.template, "template", "", "built-in template name or .html file path")
	fs.StringVar(&f.templatesDir, "templates-dir", "", "directory with custom templates")
	fs.StringVar(&f.token, "token", "", "placeholder replaced by each variant (default {{name}})")
}

// addVariantFlags adds variant name flags to a FlagSet.
func addVariantFlags(fs *flag.FlagSet, f *variantFlags) {
	fs.StringArrayVarP(&f.names, "variant", "n", nil, "variant name (repeatable)")
	fs.StringVarP(&f.file, "variants-file", "f", "", "YAML list or text file, one name per line")
}

// addOutputFlags adds artifact output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.dir, "output", "o", "", "output directory")
	fs.StringVar(&f.suffix, "suffix", "", "last filename segment (default poster)")
	fs.StringVar(&f.format, "format", "", "artifact format: png, webp")
	fs.IntVar(&f.quality, "quality", 0, "WebP quality (1-100)")
	fs.IntVar(&f.thumbnail, "thumbnail", 0, "thumbnail width in pixels (0 = none)")
}

// addRenderFlags adds rasterization flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.Float64Var(&f.scale, "scale", 0, "device scale factor (0-4, default 2)")
	fs.StringVar(&f.timeout, "timeout", "", "per-task timeout (e.g., 30s, 1m)")
}

// newFlagSet creates a FlagSet whose usage goes to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseBatchFlags parses batch command flags and returns positional args.
func parseBatchFlags(args []string, w io.Writer) (*batchFlags, []string, error) {
	f := &batchFlags{}
	fs := newFlagSet("batch", w, printBatchUsage)

	fs.StringVarP(&f.subject, "subject", "s", "", "subject name used in filenames")
	fs.StringVar(&f.history, "history", "", "SQLite history database path")
	fs.BoolVar(&f.noHistory, "no-history", false, "do not record this run")
	fs.BoolVar(&f.noUpload, "no-upload", false, "write files even when Azure is configured")

	addCommonFlags(fs, &f.common)
	addTemplateFlags(fs, &f.template)
	addVariantFlags(fs, &f.variants)
	addOutputFlags(fs, &f.output)
	addRenderFlags(fs, &f.render)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseParseFlags parses parse command flags and returns positional args.
func parseParseFlags(args []string, w io.Writer) (*parseFlags, []string, error) {
	f := &parseFlags{}
	fs := newFlagSet("parse", w, printParseUsage)

	fs.StringVarP(&f.posterType, "type", "t", "", "poster type: general, invitation, wechat")
	fs.StringVar(&f.format, "format", "json", "output format: json, yaml")
	fs.BoolVar(&f.source, "source", false, "print the extracted markup, highlighted")
	fs.StringVar(&f.style, "style", "monokai", "highlight style for --source")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", w, printServeUsage)

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default :8080)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent renderers (0 = auto)")
	fs.StringVar(&f.templatesDir, "templates-dir", "", "directory with custom templates")
	fs.StringVar(&f.timeout, "timeout", "", "per-task timeout (e.g., 30s, 1m)")
	fs.StringVar(&f.history, "history", "", "SQLite history database path")
	fs.StringSliceVar(&f.allowOrigins, "allow-origin", nil, "CORS origin allowed to call the API (repeatable)")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// parseHistoryFlags parses history command flags and returns positional args.
func parseHistoryFlags(args []string, w io.Writer) (*historyFlags, []string, error) {
	f := &historyFlags{}
	fs := newFlagSet("history", w, printHistoryUsage)

	fs.StringVar(&f.path, "history", "", "SQLite history database path")
	fs.IntVarP(&f.limit, "limit", "l", 0, "number of runs to list (default 20)")
	fs.BoolVar(&f.json, "json", false, "print JSON")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
