package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"layoutcalc/internal/diag"
	"layoutcalc/internal/layout"
	"layoutcalc/internal/manifest"
	"layoutcalc/internal/observ"
	"layoutcalc/internal/trace"
)

// Options configures a batch run.
type Options struct {
	// Target is used for files that name no target.
	Target layout.Target
	// ForceTarget makes Target win over the target a file names.
	ForceTarget bool
	// Strategies lays every declaration out under each listed strategy.
	// When empty each declaration uses its own repr.
	Strategies []layout.Strategy
	// Jobs bounds the number of files processed at once; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int

	Cache  *DiskCache
	Logger *zap.Logger
	Sink   ProgressSink
	Timer  *observ.Timer
}

// TypeLayout is the layout of one declaration under one strategy.
type TypeLayout struct {
	Name     string
	Kind     layout.Kind
	Strategy layout.Strategy
	Desc     layout.TypeDescriptor
	Layout   layout.LayoutResult
}

// FileResult holds everything computed for one descriptor file.
type FileResult struct {
	Path    string
	Target  string
	Types   []TypeLayout
	Bag     *diag.Bag
	Cached  bool
	Elapsed time.Duration
}

// Result is the outcome of Run, with files in input order.
type Result struct {
	RunID string
	Files []FileResult
}

// Diagnostics merges the per-file bags.
func (r *Result) Diagnostics() *diag.Bag {
	total := 0
	for i := range r.Files {
		total += r.Files[i].Bag.Len()
	}
	out := diag.NewBag(total)
	for i := range r.Files {
		out.Merge(r.Files[i].Bag)
	}
	return out
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *Result) HasErrors() bool {
	for i := range r.Files {
		if r.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Run lays out every file in paths. Per-file and per-type problems become
// diagnostics; the returned error is non-nil only when ctx is cancelled.
func Run(ctx context.Context, paths []string, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	res := &Result{
		RunID: uuid.NewString(),
		Files: make([]FileResult, len(paths)),
	}
	log := opts.Logger.With(zap.String("run", res.RunID))
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "compute")
	defer span.End("")
	span.Attr("run", res.RunID).Attr("files", fmt.Sprint(len(paths)))

	if len(paths) == 0 {
		return res, nil
	}
	for _, p := range paths {
		opts.Sink.OnEvent(Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}

	settings := settingsDigest(opts)
	log.Debug("run started",
		zap.Int("files", len(paths)),
		zap.Int("jobs", opts.Jobs),
		zap.String("settings", settings.String()[:12]))

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.Jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fr := runFile(gctx, path, os.ReadFile, settings, opts, log)
			res.Files[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for i := range res.Files {
			if res.Files[i].Bag == nil {
				res.Files[i] = FileResult{Path: paths[i], Bag: diag.NewBag(opts.MaxDiagnostics)}
			}
		}
		return res, err
	}
	return res, nil
}

// RunSource lays out an in-memory descriptor as if it were read from name.
// The disk cache is never consulted.
func RunSource(ctx context.Context, name string, data []byte, opts Options) *Result {
	opts = withDefaults(opts)
	opts.Cache = nil
	res := &Result{RunID: uuid.NewString()}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "compute")
	defer span.End("")

	read := func(string) ([]byte, error) { return data, nil }
	fr := runFile(ctx, name, read, settingsDigest(opts), opts, opts.Logger.With(zap.String("run", res.RunID)))
	res.Files = []FileResult{fr}
	return res
}

func withDefaults(opts Options) Options {
	if opts.Target.Triple == "" {
		opts.Target = layout.X86_64LinuxGNU()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 256
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	return opts
}

// settingsDigest covers everything besides file content that changes the output.
func settingsDigest(opts Options) Digest {
	strategies := make([]string, 0, len(opts.Strategies))
	for _, s := range opts.Strategies {
		strategies = append(strategies, s.String())
	}
	t := opts.Target
	return DigestString(fmt.Sprintf("schema=%d target=%s/%d/%d/%d/%d force=%t strategies=%s",
		diskCacheSchemaVersion, t.Triple, t.PtrSize, t.PtrAlign, t.I64Align, t.I128Align,
		opts.ForceTarget, strings.Join(strategies, ",")))
}

func runFile(ctx context.Context, path string, read func(string) ([]byte, error), settings Digest, opts Options, log *zap.Logger) FileResult {
	started := time.Now()
	endPhase := opts.Timer.Start("file " + path)
	ctx, span := trace.Start(ctx, trace.ScopeFile, "file:"+path)

	fr := FileResult{Path: path, Bag: diag.NewBag(opts.MaxDiagnostics)}
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: fr.Bag})
	finish := func(stage Stage) FileResult {
		fr.Bag.Dedup()
		fr.Bag.Sort()
		fr.Elapsed = time.Since(started)
		status := StatusDone
		note := fmt.Sprintf("%d layouts", len(fr.Types))
		if fr.Bag.HasErrors() {
			status = StatusError
			note = fmt.Sprintf("%d layouts, %d diagnostics", len(fr.Types), fr.Bag.Len())
		}
		if fr.Cached {
			note += ", cached"
		}
		endPhase(note)
		span.Attr("types", fmt.Sprint(len(fr.Types))).Attr("cached", fmt.Sprint(fr.Cached)).End(string(status))
		opts.Sink.OnEvent(Event{File: path, Stage: stage, Status: status, Elapsed: fr.Elapsed})
		log.Debug("file laid out",
			zap.String("file", path),
			zap.Int("types", len(fr.Types)),
			zap.Int("diagnostics", fr.Bag.Len()),
			zap.Bool("cached", fr.Cached),
			zap.Duration("elapsed", fr.Elapsed))
		return fr
	}

	opts.Sink.OnEvent(Event{File: path, Stage: StageLoad, Status: StatusWorking})
	data, err := read(path)
	if err != nil {
		diag.ReportError(reporter, diag.IOLoadFileError, diag.Location{File: path}, "failed to load file: "+err.Error())
		return finish(StageLoad)
	}

	key := Combine(sha256Digest(data), settings)
	if opts.Cache != nil {
		opts.Sink.OnEvent(Event{File: path, Stage: StageCache, Status: StatusWorking})
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		switch {
		case err != nil:
			log.Warn("cache read failed", zap.String("file", path), zap.Error(err))
			diag.ReportWarning(reporter, diag.IOCacheError, diag.Location{File: path}, err.Error())
		case hit:
			fr.Cached = true
			fr.Target = payload.Target
			fr.Types = payload.Types
			for _, d := range payload.Diags {
				reporter.Report(d)
			}
			trace.Point(ctx, trace.ScopeFile, "cache-hit", key.String()[:12])
			return finish(StageCache)
		}
	}

	file, err := manifest.Decode(path, data, reporter)
	if err != nil {
		diag.ReportError(reporter, loadErrorCode(err), diag.Location{File: path}, err.Error())
		return finish(StageLoad)
	}

	opts.Sink.OnEvent(Event{File: path, Stage: StageLayout, Status: StatusWorking})
	target := opts.Target
	if file.Target != "" && !opts.ForceTarget {
		if tgt, ok := layout.LookupTarget(file.Target); ok {
			target = tgt
		}
	}
	fr.Target = target.Triple
	fr.Types = layoutFile(ctx, file, target, opts.Strategies, reporter)

	if opts.Cache != nil && ctx.Err() == nil {
		payload := &DiskPayload{
			Path:   path,
			Target: fr.Target,
			Types:  fr.Types,
			Diags:  slices.Clone(fr.Bag.Items()),
		}
		if err := opts.Cache.Put(key, payload); err != nil {
			log.Warn("cache write failed", zap.String("file", path), zap.Error(err))
			diag.ReportWarning(reporter, diag.IOCacheError, diag.Location{File: path}, err.Error())
		}
	}
	return finish(StageLayout)
}

func loadErrorCode(err error) diag.Code {
	switch {
	case errors.Is(err, manifest.ErrUnsupportedFormat):
		return diag.ManUnsupportedFile
	case errors.Is(err, manifest.ErrSyntax):
		return diag.ManSyntax
	default:
		return diag.IOLoadFileError
	}
}

// layoutFile lays out every resolvable declaration of file in declaration order.
func layoutFile(ctx context.Context, file *manifest.File, target layout.Target, strategies []layout.Strategy, r diag.Reporter) []TypeLayout {
	eng := layout.New(target, file.Types)
	out := make([]TypeLayout, 0, file.Types.Len()*max(1, len(strategies)))
	for _, decl := range file.Types.Decls() {
		if ctx.Err() != nil {
			break
		}
		if file.Unresolved[decl.Name] {
			continue
		}
		list := strategies
		if len(list) == 0 {
			list = []layout.Strategy{eng.StrategyOf(decl.Name)}
		}
		for _, s := range list {
			_, span := trace.Start(ctx, trace.ScopeType, "type:"+decl.Name)
			desc, err := eng.Descriptor(decl.Name, s)
			if err != nil {
				span.End("error")
				reportLayoutError(r, file.Path, decl.Name, err)
				break
			}
			res, err := eng.LayoutWith(decl.Name, s)
			if err != nil {
				span.End("error")
				reportLayoutError(r, file.Path, decl.Name, err)
				break
			}
			span.Attr("strategy", s.String()).End(fmt.Sprintf("size=%d align=%d", res.Size, res.Align))
			out = append(out, TypeLayout{
				Name:     decl.Name,
				Kind:     desc.Kind,
				Strategy: s,
				Desc:     desc,
				Layout:   res,
			})
		}
	}
	return out
}
