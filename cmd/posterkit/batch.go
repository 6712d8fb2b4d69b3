package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/assets"
	"github.com/alnah/go-posterkit/internal/config"
	"github.com/alnah/go-posterkit/internal/fileutil"
	"github.com/alnah/go-posterkit/internal/history"
	"github.com/alnah/go-posterkit/internal/markup"
	"github.com/alnah/go-posterkit/internal/yamlutil"
)

// runBatchCmd parses flags and renders one batch. SIGINT cancels the run;
// posters already rendered are still delivered.
func runBatchCmd(args []string, env *Environment) error {
	flags, positional, err := parseBatchFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, positional[0])
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()
	return runBatch(ctx, flags, env)
}

// runBatch orchestrates config, template, variants, rendering, history and
// delivery for one batch.
func runBatch(ctx context.Context, f *batchFlags, env *Environment) error {
	envCfg := loadEnvConfig()
	cfg, err := loadConfig(f.common.config, envCfg)
	if err != nil {
		return err
	}
	mergeBatchFlags(f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg.Log, f.common, env.Stderr)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Subject) == "" {
		return ErrNoSubject
	}
	posterType, err := posterkit.ParsePosterType(cfg.PosterType)
	if err != nil {
		return err
	}
	tmpl, err := resolveTemplate(cfg, posterType)
	if err != nil {
		return err
	}
	names, err := resolveVariants(cfg)
	if err != nil {
		return err
	}
	specs := posterkit.ExpandVariants(tmpl, cfg.Token, names)
	if len(specs) == 0 {
		return ErrNoVariants
	}

	canvas := posterkit.Parse(tmpl, posterType).Canvas
	batchOpts, rendererOpts, err := buildBatchOptions(cfg, log)
	if err != nil {
		return err
	}

	deliverer, err := buildDeliverer(cfg, envCfg, f.noUpload)
	if err != nil {
		return err
	}

	renderer := env.NewRenderer(rendererOpts...)
	defer func() {
		if cerr := renderer.Close(); cerr != nil {
			log.WithError(cerr).Warn("closing renderer")
		}
	}()

	b, err := posterkit.NewBatch(specs, canvas.Size(), cfg.Subject, renderer, batchOpts...)
	if err != nil {
		return err
	}
	if !f.common.quiet {
		unsubscribe := b.Subscribe(progressPrinter(env, b))
		defer unsubscribe()
	}

	log.WithFields(logrus.Fields{
		"subject": cfg.Subject,
		"posters": len(specs),
		"canvas":  fmt.Sprintf("%dx%d", canvas.Width, canvas.Height),
	}).Debug("starting batch")

	started := env.Now()
	startErr := b.Start(ctx)
	finished := env.Now()

	if !f.noHistory {
		recordHistory(cfg.History.Path, b, posterType, startErr, started, finished, log)
	}

	// Completed posters are delivered even after an interrupt.
	delivered, deliverErr := b.DownloadAll(context.WithoutCancel(ctx), deliverer)
	state := b.Snapshot()

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Rendered %d/%d posters", state.Completed, state.Total)
		if state.Failed > 0 {
			fmt.Fprintf(env.Stdout, " (%d failed)", state.Failed)
		}
		fmt.Fprintf(env.Stdout, ", delivered %d to %s in %s\n",
			delivered, destination(cfg, f.noUpload), finished.Sub(started).Round(time.Millisecond))
	}

	switch {
	case startErr != nil:
		return startErr
	case deliverErr != nil:
		if _, ok := deliverer.(*posterkit.AzureDeliverer); ok {
			return fmt.Errorf("%w: %w", ErrUpload, deliverErr)
		}
		return deliverErr
	case state.Failed > 0:
		return taskFailureError(state)
	}
	return nil
}

// mergeBatchFlags copies explicitly set flags over config values (CLI wins).
func mergeBatchFlags(f *batchFlags, cfg *config.Config) {
	if f.subject != "" {
		cfg.Subject = f.subject
	}
	if f.template.posterType != "" {
		cfg.PosterType = f.template.posterType
	}
	if f.template.template != "" {
		cfg.Template = f.template.template
	}
	if f.template.templatesDir != "" {
		cfg.TemplatesDir = f.template.templatesDir
	}
	if f.template.token != "" {
		cfg.Token = f.template.token
	}
	if len(f.variants.names) > 0 {
		cfg.Variants = f.variants.names
	}
	if f.variants.file != "" {
		cfg.VariantsFile = f.variants.file
	}
	if f.output.dir != "" {
		cfg.Output.Dir = f.output.dir
	}
	if f.output.suffix != "" {
		cfg.Output.Suffix = f.output.suffix
	}
	if f.output.format != "" {
		cfg.Output.Format = f.output.format
	}
	if f.output.quality != 0 {
		cfg.Output.Quality = f.output.quality
	}
	if f.output.thumbnail != 0 {
		cfg.Output.ThumbnailWidth = f.output.thumbnail
	}
	if f.render.scale != 0 {
		cfg.Render.Scale = f.render.scale
	}
	if f.render.timeout != "" {
		cfg.Render.Timeout = f.render.timeout
	}
	if f.history != "" {
		cfg.History.Path = f.history
	}
	if f.common.logLevel != "" {
		cfg.Log.Level = f.common.logLevel
	}
	if f.common.logFormat != "" {
		cfg.Log.Format = f.common.logFormat
	}
}

// resolveTemplate loads the template markup. A path is read from disk;
// a name is looked up in the templates directory, then the built-ins.
// Without either, the built-in template named after the poster type is used.
// Chat-style responses are reduced to their fenced markup.
func resolveTemplate(cfg *config.Config, posterType posterkit.PosterType) (string, error) {
	name := cfg.Template
	if name == "" {
		name = string(posterType)
	}

	var content string
	if fileutil.IsFilePath(name) {
		data, err := os.ReadFile(name) // #nosec G304 -- template path is user-provided
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrReadTemplate, err)
		}
		content = string(data)
	} else {
		resolver, err := assets.NewAssetResolver(cfg.TemplatesDir)
		if err != nil {
			return "", err
		}
		content, err = resolver.LoadTemplate(name)
		if err != nil {
			return "", err
		}
	}

	content = markup.ExtractMarkup(content)
	if strings.TrimSpace(content) == "" {
		return "", posterkit.ErrEmptyTemplate
	}
	return content, nil
}

// resolveVariants combines config/flag names with the variants file.
func resolveVariants(cfg *config.Config) ([]string, error) {
	names := append([]string(nil), cfg.Variants...)
	if cfg.VariantsFile == "" {
		return names, nil
	}
	fromFile, err := readVariantsFile(cfg.VariantsFile)
	if err != nil {
		return nil, err
	}
	return append(names, fromFile...), nil
}

// readVariantsFile reads a YAML variants file (.yaml/.yml) or a plain text
// file with one name per line.
func readVariantsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- variants path is user-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadVariants, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		names, err := yamlutil.UnmarshalNames(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadVariants, path, err)
		}
		return names, nil
	default:
		names, err := fileutil.ReadLines(strings.NewReader(string(data)))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrReadVariants, path, err)
		}
		return names, nil
	}
}

// buildBatchOptions turns the render and output config into batch and
// renderer options. Zero durations keep the library defaults.
func buildBatchOptions(cfg *config.Config, log *logrus.Logger) ([]posterkit.BatchOption, []posterkit.RendererOption, error) {
	durations, err := cfg.Render.Durations()
	if err != nil {
		return nil, nil, err
	}
	format, err := posterkit.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, nil, err
	}

	opts := []posterkit.BatchOption{
		posterkit.WithLogger(log),
		posterkit.WithSuffix(cfg.Output.Suffix),
		posterkit.WithFormat(format, cfg.Output.Quality),
		posterkit.WithThumbnail(cfg.Output.ThumbnailWidth),
	}
	if cfg.Render.Scale > 0 {
		opts = append(opts, posterkit.WithScale(cfg.Render.Scale))
	}
	if durations.SettleDelay > 0 {
		opts = append(opts, posterkit.WithSettleDelay(durations.SettleDelay))
	}
	if durations.TaskDelay > 0 {
		opts = append(opts, posterkit.WithTaskDelay(durations.TaskDelay))
	}
	if durations.DownloadStagger > 0 {
		opts = append(opts, posterkit.WithDownloadStagger(durations.DownloadStagger))
	}

	var rendererOpts []posterkit.RendererOption
	if durations.Timeout > 0 {
		opts = append(opts, posterkit.WithRasterTimeout(durations.Timeout))
		rendererOpts = append(rendererOpts, posterkit.WithLoadTimeout(durations.Timeout))
	}
	return opts, rendererOpts, nil
}

// buildDeliverer selects blob upload when Azure is configured, otherwise
// the output directory, which is created up front.
func buildDeliverer(cfg *config.Config, env *envConfig, noUpload bool) (posterkit.Deliverer, error) {
	if cfg.Azure.Enabled() && !noUpload {
		if env.AzureKey == "" {
			return nil, fmt.Errorf("%w: POSTERKIT_AZURE_KEY is not set", ErrUpload)
		}
		d, err := posterkit.NewAzureDeliverer(cfg.Azure.Account, env.AzureKey, cfg.Azure.Container, cfg.Azure.Prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpload, err)
		}
		return d, nil
	}

	if err := os.MkdirAll(cfg.Output.Dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateOutputDir, cfg.Output.Dir, err)
	}
	return posterkit.DirDeliverer{Dir: cfg.Output.Dir}, nil
}

func destination(cfg *config.Config, noUpload bool) string {
	if cfg.Azure.Enabled() && !noUpload {
		return "azure://" + cfg.Azure.Account + "/" + cfg.Azure.Container
	}
	return cfg.Output.Dir
}

// progressPrinter prints one line per finished task.
func progressPrinter(env *Environment, b *posterkit.Batch) func(posterkit.Event) {
	return func(ev posterkit.Event) {
		if ev.Kind != posterkit.EventTask || !ev.Status.Terminal() {
			return
		}
		task, err := b.Task(ev.TaskID)
		if err != nil {
			return
		}
		if ev.Status == posterkit.StatusCompleted {
			fmt.Fprintf(env.Stdout, "  [OK] %s\n", task.Name)
			return
		}
		fmt.Fprintf(env.Stdout, "  [FAIL] %s: %s\n", task.Name, ev.Error)
	}
}

// recordHistory stores the run when a history path is configured.
// Failures are logged, never returned.
func recordHistory(path string, b *posterkit.Batch, posterType posterkit.PosterType, startErr error, started, finished time.Time, log *logrus.Logger) {
	if path == "" {
		return
	}
	store, err := history.Open(path)
	if err != nil {
		log.WithError(err).Warn("opening run history")
		return
	}
	defer func() { _ = store.Close() }()

	run := history.FromBatch(b, string(posterType), startErr, started, finished)
	if err := store.Record(context.Background(), run); err != nil {
		log.WithError(err).Warn("recording run history")
	}
}

// taskFailureError summarizes failed tasks. When every task failed for the
// same browser or timeout reason, that sentinel is wrapped too so exit codes
// and hints can point at it.
func taskFailureError(state posterkit.RunState) error {
	var first string
	for _, t := range state.Tasks {
		if t.Status == posterkit.StatusFailed {
			first = t.Error
			break
		}
	}

	err := fmt.Errorf("%w: %d of %d (first: %s)", ErrTasksFailed, state.Failed, state.Total, first)
	if state.Completed > 0 {
		return err
	}
	switch {
	case strings.Contains(first, posterkit.ErrBrowserConnect.Error()):
		return fmt.Errorf("%w: %w", posterkit.ErrBrowserConnect, err)
	case strings.Contains(first, posterkit.ErrRasterTimeout.Error()):
		return fmt.Errorf("%w: %w", posterkit.ErrRasterTimeout, err)
	}
	return err
}
