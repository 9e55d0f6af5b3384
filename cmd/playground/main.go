// Package main is the command-line front end of the playground pipeline.
//
// It reads JavaScript, TypeScript, or JSX source from a file or stdin,
// runs it through the detection → transformation → sandboxed execution →
// serialization pipeline, and prints the ordered results.
//
// Usage:
//
//	# Run a file, autodetecting the language
//	playground -file snippet.ts
//
//	# Pipe from stdin with a forced language and JSON output
//	echo 'console.log(1+1)' | playground -lang javascript -json
//
// Configuration:
//   - Environment variables (PLAYGROUND_* prefix)
//   - Optional YAML config file (-config)
//   - CLI flags override both
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"

	"github.com/sandkit/playground/internal/infrastructure/config"
	"github.com/sandkit/playground/internal/infrastructure/logging"
	"github.com/sandkit/playground/internal/inspect"
	"github.com/sandkit/playground/internal/runner"
)

func main() {
	file := flag.String("file", "", "Source file to execute (stdin when empty)")
	lang := flag.String("lang", "", "Force a language id (javascript, typescript, javascriptreact, typescriptreact)")
	timeout := flag.Duration("timeout", 0, "Override execution timeout (e.g. 5s)")
	jsonOut := flag.Bool("json", false, "Emit results as JSON instead of colorized text")
	configFile := flag.String("config", "", "YAML config file overlay")
	dev := flag.Bool("dev", false, "Development logging (colored, debug level)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *timeout > 0 {
		cfg.Execution.Timeout = *timeout
	}

	logger, err := newLogger(cfg, *dev)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	code, err := readSource(*file)
	if err != nil {
		log.Fatalf("Failed to read source: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Execution.Timeout+time.Second)
	defer cancel()

	results, err := runner.New(cfg, logger, nil).Run(ctx, code, *lang)
	if err != nil {
		log.Fatalf("Execution failed: %v", err)
	}

	if *jsonOut {
		printJSON(results)
		return
	}
	printColorized(results)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadOrDefault(), nil
}

func newLogger(cfg *config.Config, dev bool) (*logging.Logger, error) {
	if dev || cfg.Logging.Development {
		return logging.NewDevelopment(), nil
	}
	return logging.New(logging.Config{Level: cfg.Logging.Level})
}

func readSource(file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		return string(data), err
	}
	data, err := io.ReadAll(os.Stdin)
	return string(data), err
}

func printJSON(results []runner.Result) {
	out, err := sonic.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode results: %v", err)
	}
	fmt.Println(string(out))
}

func printColorized(results []runner.Result) {
	failed := false
	for _, r := range results {
		prefix := ""
		if r.LineNumber > 0 {
			prefix = fmt.Sprintf("%3d | ", r.LineNumber)
		} else {
			prefix = "    | "
		}
		fmt.Println(prefix + ansiColor(r.Element.Color) + r.Element.Content + ansiReset)
		if r.Type == runner.TypeError {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

const ansiReset = "\033[0m"

func ansiColor(c inspect.Color) string {
	switch c {
	case inspect.ColorMuted:
		return "\033[90m"
	case inspect.ColorNumber:
		return "\033[36m"
	case inspect.ColorString:
		return "\033[32m"
	case inspect.ColorBoolean:
		return "\033[35m"
	case inspect.ColorFunction:
		return "\033[34m"
	case inspect.ColorInfo:
		return "\033[94m"
	case inspect.ColorWarning:
		return "\033[33m"
	case inspect.ColorError:
		return "\033[31m"
	default:
		return ""
	}
}
