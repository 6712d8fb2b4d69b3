package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: posterkit <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  batch      Render one poster per variant name")
	fmt.Fprintln(w, "  parse      Print the element structure of poster markup")
	fmt.Fprintln(w, "  serve      Run the HTTP API")
	fmt.Fprintln(w, "  history    List or show recorded batch runs")
	fmt.Fprintln(w, "  doctor     Check Chrome and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'posterkit help <command>' for details on a specific command.")
}

// printCommonUsage prints the flags every command accepts.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log every task transition")
	fmt.Fprintln(w, "      --log-level <s>       Log level: debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
}

// printBatchUsage prints usage for the batch command.
func printBatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: posterkit batch -s <subject> -n <name> [-n <name>...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render one poster per variant name, then deliver the artifacts")
	fmt.Fprintln(w, "as {subject}_{name}_{suffix}.{format}.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Batch:")
	fmt.Fprintln(w, "  -s, --subject <s>         Subject name used in filenames")
	fmt.Fprintln(w, "      --history <path>      SQLite history database path")
	fmt.Fprintln(w, "      --no-history          Do not record this run")
	fmt.Fprintln(w, "      --no-upload           Write files even when Azure is configured")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Template:")
	fmt.Fprintln(w, "  -t, --type <s>            Poster type: general, invitation, wechat")
	fmt.Fprintln(w, "      --template <s>        Built-in template name or .html file path")
	fmt.Fprintln(w, "      --templates-dir <dir> Directory with custom templates")
	fmt.Fprintln(w, "      --token <s>           Placeholder replaced by each name (default {{name}})")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Variants:")
	fmt.Fprintln(w, "  -n, --variant <s>         Variant name (repeatable)")
	fmt.Fprintln(w, "  -f, --variants-file <p>   YAML list or text file, one name per line")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default posters)")
	fmt.Fprintln(w, "      --suffix <s>          Last filename segment (default poster)")
	fmt.Fprintln(w, "      --format <s>          Artifact format: png, webp")
	fmt.Fprintln(w, "      --quality <n>         WebP quality (1-100)")
	fmt.Fprintln(w, "      --thumbnail <px>      Thumbnail width (0 = none)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render:")
	fmt.Fprintln(w, "      --scale <f>           Device scale factor (default 2)")
	fmt.Fprintln(w, "      --timeout <d>         Per-task timeout (e.g., 30s, 1m)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printParseUsage prints usage for the parse command.
func printParseUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: posterkit parse [file | -] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Parse poster markup from a file or stdin and print its canvas,")
	fmt.Fprintln(w, "elements and validation. Exits 1 when elements are invalid.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Parse:")
	fmt.Fprintln(w, "  -t, --type <s>            Poster type: general, invitation, wechat")
	fmt.Fprintln(w, "      --format <s>          Output format: json, yaml")
	fmt.Fprintln(w, "      --source              Print the extracted markup, highlighted")
	fmt.Fprintln(w, "      --style <s>           Highlight style for --source (default monokai)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: posterkit serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the batch API. Progress streams over /api/batches/{id}/events.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default :8080)")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent renderers (0 = auto)")
	fmt.Fprintln(w, "      --templates-dir <dir> Directory with custom templates")
	fmt.Fprintln(w, "      --timeout <d>         Per-task timeout (e.g., 30s, 1m)")
	fmt.Fprintln(w, "      --history <path>      SQLite history database path")
	fmt.Fprintln(w, "      --allow-origin <o>    CORS origin allowed to call the API (repeatable)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printHistoryUsage prints usage for the history command.
func printHistoryUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: posterkit history [list | show <id>] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List recorded batch runs, newest first, or show one run's tasks.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "History:")
	fmt.Fprintln(w, "      --history <path>      SQLite history database path")
	fmt.Fprintln(w, "  -l, --limit <n>           Number of runs to list (default 20)")
	fmt.Fprintln(w, "      --json                Print JSON")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "batch":
		printBatchUsage(env.Stdout)
	case "parse":
		printParseUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "history":
		printHistoryUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: posterkit doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, sandbox settings and built-in templates.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: posterkit version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: posterkit help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
