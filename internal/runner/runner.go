// Package runner orchestrates the playground pipeline: infinite-loop
// pre-scan, language detection, source transformation, sandboxed execution,
// and assembly of ordered results. Every expected failure class becomes an
// error-typed Result; Run itself only fails on host-level problems.
package runner

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sandkit/playground/internal/infrastructure/config"
	"github.com/sandkit/playground/internal/infrastructure/logging"
	"github.com/sandkit/playground/internal/infrastructure/monitoring"
	"github.com/sandkit/playground/internal/inspect"
	"github.com/sandkit/playground/internal/language"
	"github.com/sandkit/playground/internal/sandbox"
	"github.com/sandkit/playground/internal/transform"
)

// Runner is the primary entry point consumed by frontends. Safe for
// concurrent use; callers wanting last-request-wins semantics should go
// through sandbox.Session instead of calling Run concurrently.
type Runner struct {
	cfg     *config.Config
	exec    *sandbox.Executor
	log     *logging.Logger
	metrics *monitoring.Metrics
}

func New(cfg *config.Config, log *logging.Logger, metrics *monitoring.Metrics) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.NewNop()
	}
	caps := sandbox.ContextConfig{
		EnableWebAPIs:   cfg.Sandbox.EnableWebAPI,
		EnableNodeAPIs:  cfg.Sandbox.EnableNode,
		EnableReactAPIs: cfg.Sandbox.EnableReact,
		Level:           sandbox.SandboxLevel(cfg.Sandbox.Level),
	}
	limits := inspect.Limits{
		MaxDepth:      cfg.Serializer.MaxDepth,
		MaxProperties: cfg.Serializer.MaxProperties,
		MaxEntries:    cfg.Serializer.MaxEntries,
		MaxStringLen:  cfg.Serializer.MaxStringLen,
		OpTimeout:     cfg.Serializer.OpTimeout,
	}
	return &Runner{
		cfg:     cfg,
		exec:    sandbox.NewExecutor(cfg.Execution, limits, caps, log.Named("sandbox"), metrics),
		log:     log.Named("runner"),
		metrics: metrics,
	}
}

// Run executes code and returns ordered results. languageID optionally
// forces a language ("typescript", "javascriptreact", ...); empty means
// autodetect. Empty or whitespace-only code returns an empty slice without
// touching the transformer or executor.
func (r *Runner) Run(ctx context.Context, code, languageID string) ([]Result, error) {
	if strings.TrimSpace(code) == "" {
		return []Result{}, nil
	}

	if transform.DetectInfiniteLoops(code) {
		r.log.Debug("blocked by infinite loop pre-scan")
		return []Result{loopBlockedResult()}, nil
	}

	det := r.detect(code, languageID)

	start := time.Now()
	instrumented, err := transform.Transform(code, det, transform.Options{
		LoopIterationCeiling: r.cfg.Transform.LoopIterationCeiling,
	})
	r.metrics.ObserveTransform(time.Since(start))
	if err != nil {
		return []Result{errorResult(parseError(err, PhaseTransformation))}, nil
	}

	captures, execErr := r.exec.Execute(ctx, instrumented)

	results := make([]Result, 0, len(captures)+1)
	for _, c := range captures {
		results = append(results, Result{
			LineNumber: c.Line,
			Element:    c.Element,
			Type:       TypeExecution,
			Method:     c.Method,
		})
	}
	switch {
	case errors.Is(execErr, sandbox.ErrCancelled):
		results = append(results, Result{
			Element: inspect.Element{Content: "Execution cancelled.", Color: inspect.ColorInfo},
			Type:    TypeInfo,
		})
	case execErr != nil:
		results = append(results, errorResult(parseError(execErr, PhaseExecution)))
	}

	orderResults(results)
	r.log.Debug("run complete",
		zap.Int("results", len(results)),
		zap.String("extension", det.Extension))
	return results, nil
}

func (r *Runner) detect(code, languageID string) language.Detection {
	if languageID != "" {
		if det, ok := language.FromLanguageID(languageID); ok {
			return det
		}
		r.log.Warn("unknown language id, autodetecting", zap.String("language", languageID))
	}
	return language.Detect(code)
}

// TransformCode instruments code without executing it. Parse failures come
// back as *transform.ParseError.
func (r *Runner) TransformCode(code, languageID string) (string, error) {
	det := r.detect(code, languageID)
	return transform.Transform(code, det, transform.Options{
		LoopIterationCeiling: r.cfg.Transform.LoopIterationCeiling,
	})
}

// Pure predicates re-exported for frontends.

func DetectJSX(code string) bool           { return language.DetectJSX(code) }
func DetectTypeScript(code string) bool    { return language.DetectTypeScript(code) }
func DetectInfiniteLoops(code string) bool { return transform.DetectInfiniteLoops(code) }

// SetEnvironmentVariables sets the process-wide env overlay injected as
// process.env into every subsequent execution.
func SetEnvironmentVariables(vars map[string]string) {
	sandbox.SetEnvironmentVariables(vars)
}

func loopBlockedResult() Result {
	info := &ErrorInfo{
		Type:    "Error",
		Message: "Infinite loop detected: add a break, return, or await inside the loop before running.",
		Phase:   PhaseValidation,
	}
	return Result{
		Element:   inspect.Element{Content: info.Display(), Color: inspect.ColorWarning},
		Type:      TypeError,
		ErrorInfo: info,
	}
}

func errorResult(info *ErrorInfo) Result {
	return Result{
		LineNumber: info.Line,
		Element:    inspect.Element{Content: info.Display(), Color: inspect.ColorError},
		Type:       TypeError,
		ErrorInfo:  info,
	}
}

// orderResults sorts location-less errors first, then ascending by line,
// preserving emission order for equal keys.
func orderResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return orderKey(results[i]) < orderKey(results[j])
	})
}

func orderKey(r Result) int {
	if r.Type == TypeError && r.LineNumber == 0 {
		return -1
	}
	return r.LineNumber
}
