package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	posterkit "github.com/alnah/go-posterkit"
	"github.com/alnah/go-posterkit/internal/markup"
	"github.com/alnah/go-posterkit/internal/yamlutil"
)

// parseOutput is what the parse command prints.
type parseOutput struct {
	Result     *posterkit.ParseResult `json:"result" yaml:"result"`
	Validation posterkit.Validation   `json:"validation" yaml:"validation"`
}

// runParseCmd parses markup from a file or stdin and prints the structure.
// It fails with ErrInvalidMarkup when validation reports errors, after
// printing the result.
func runParseCmd(args []string, env *Environment) error {
	f, positional, err := parseParseFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: parse takes at most one input", ErrUsage)
	}

	raw, err := readInput(positional, env.Stdin)
	if err != nil {
		return err
	}
	posterType, err := posterkit.ParsePosterType(f.posterType)
	if err != nil {
		return err
	}

	src := markup.ExtractMarkup(raw)
	if f.source {
		return highlight(env.Stdout, src, f.style)
	}

	result := posterkit.Parse(src, posterType)
	out := parseOutput{Result: result, Validation: posterkit.Validate(result.Elements)}
	if err := writeParseOutput(env.Stdout, out, f.format); err != nil {
		return err
	}

	if !out.Validation.Valid {
		return fmt.Errorf("%w: %d errors", ErrInvalidMarkup, len(out.Validation.Errors))
	}
	return nil
}

// readInput reads the markup named by args, or stdin for "-" or no args.
func readInput(args []string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0]) // #nosec G304 -- input path is user-provided
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return string(data), nil
}

func writeParseOutput(w io.Writer, out parseOutput, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		data, err := yamlutil.Marshal(out)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: --format %q (must be json or yaml)", ErrUsage, format)
	}
}

// highlight writes markup with terminal colors. Unknown style names fall
// back to chroma's default style.
func highlight(w io.Writer, src, styleName string) error {
	lexer := lexers.Get("html")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return fmt.Errorf("highlighting markup: %w", err)
	}
	if err := formatter.Format(w, styles.Get(styleName), it); err != nil {
		return fmt.Errorf("highlighting markup: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
