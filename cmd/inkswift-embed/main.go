// Command inkswift-embed stamps signature images into a PDF from a field
// manifest, without going through the MCP server.
package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/inkswift/mcp-pdf-signer/internal/config"
	"github.com/inkswift/mcp-pdf-signer/internal/pdf"
	"github.com/inkswift/mcp-pdf-signer/internal/signature"
)

const (
	exitOK      = 0
	exitError   = 1
	exitSkipped = 3
)

// manifest lists the fields to embed. YAML and JSON are both accepted.
type manifest struct {
	Fields []manifestField `yaml:"fields"`
}

// manifestField is a field whose image may also be given as a file path,
// relative to the manifest.
type manifestField struct {
	signature.FieldInput `yaml:",inline"`
	ImageFile            string `yaml:"image_file,omitempty"`
}

type options struct {
	fieldsPath  string
	output      string
	format      string
	strict      bool
	verbose     bool
	fieldWidth  float64
	fieldHeight float64
	maxFileSize int64
}

type report struct {
	Input    string                 `json:"input"`
	Output   string                 `json:"output"`
	Pages    int                    `json:"pages"`
	Embedded []string               `json:"embedded"`
	Skipped  []signature.Diagnostic `json:"skipped"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, input, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	rep, err := embed(opts, input, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if err := writeReport(stdout, opts.format, rep); err != nil {
		fmt.Fprintf(stderr, "Error writing report: %v\n", err)
		return exitError
	}

	if opts.strict && len(rep.Skipped) > 0 {
		return exitSkipped
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (options, string, error) {
	defaults := signature.DefaultDefaults()
	var opts options

	fs := pflag.NewFlagSet("inkswift-embed", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.fieldsPath, "fields", "", "Field manifest (YAML or JSON)")
	fs.StringVarP(&opts.output, "out", "o", "", "Output path (default <name>.signed.pdf)")
	fs.StringVar(&opts.format, "format", "text", "Report format: text, json")
	fs.BoolVar(&opts.strict, "strict", false, "Exit with status 3 when any field is skipped")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Log skipped fields as they happen")
	fs.Float64Var(&opts.fieldWidth, "fieldwidth", defaults.Width, "Default field width in points")
	fs.Float64Var(&opts.fieldHeight, "fieldheight", defaults.Height, "Default field height in points")
	fs.Int64Var(&opts.maxFileSize, "maxfilesize", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: inkswift-embed --fields manifest.yaml [options] input.pdf\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, "", fmt.Errorf("exactly one input PDF is required")
	}
	if opts.fieldsPath == "" {
		return opts, "", fmt.Errorf("--fields is required")
	}
	if opts.format != "text" && opts.format != "json" {
		return opts, "", fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, fs.Arg(0), nil
}

func embed(opts options, input string, stderr io.Writer) (*report, error) {
	inputs, err := loadManifest(opts.fieldsPath)
	if err != nil {
		return nil, err
	}

	defaults := signature.DefaultDefaults()
	defaults.Width = opts.fieldWidth
	defaults.Height = opts.fieldHeight
	fields, err := signature.NormalizeAll(inputs, defaults)
	if err != nil {
		return nil, err
	}

	output := opts.output
	if output == "" {
		output = pdf.SignedPath(input)
	}
	if filepath.Clean(output) == filepath.Clean(input) {
		return nil, fmt.Errorf("output must not overwrite the input document")
	}

	validator := pdf.NewValidator(opts.maxFileSize)
	data, err := validator.ReadFile(input)
	if err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(stderr, "inkswift-embed: ", 0)
	}

	result, err := signature.NewEmbedder(nil, logger).EmbedAllFields(data, fields)
	if err != nil {
		return nil, err
	}

	pages, err := validator.ValidateBytes(result.PDF)
	if err != nil {
		return nil, fmt.Errorf("signed output failed verification: %w", err)
	}
	if err := os.WriteFile(output, result.PDF, pdf.DefaultFilePerm); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", output, err)
	}

	return &report{
		Input:    input,
		Output:   output,
		Pages:    pages,
		Embedded: result.Embedded,
		Skipped:  result.Skipped,
	}, nil
}

// loadManifest reads the manifest and inlines image files as base64
func loadManifest(path string) ([]signature.FieldInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(m.Fields) == 0 {
		return nil, fmt.Errorf("manifest %s lists no fields", path)
	}

	base := filepath.Dir(path)
	inputs := make([]signature.FieldInput, len(m.Fields))
	for i, f := range m.Fields {
		in := f.FieldInput
		if f.ImageFile != "" {
			if in.Image != "" {
				return nil, fmt.Errorf("field %d: image and image_file are mutually exclusive", i)
			}
			imgPath := f.ImageFile
			if !filepath.IsAbs(imgPath) {
				imgPath = filepath.Join(base, imgPath)
			}
			img, err := os.ReadFile(imgPath)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			in.Image = base64.StdEncoding.EncodeToString(img)
		}
		inputs[i] = in
	}
	return inputs, nil
}

func writeReport(w io.Writer, format string, rep *report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Wrote %s (%d pages)\n", rep.Output, rep.Pages)
	fmt.Fprintf(&b, "Embedded: %d\n", len(rep.Embedded))
	for _, id := range rep.Embedded {
		fmt.Fprintf(&b, "  + %s\n", id)
	}
	if len(rep.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped: %d\n", len(rep.Skipped))
		for _, d := range rep.Skipped {
			fmt.Fprintf(&b, "  - %s (page %d) %s: %s\n", d.FieldID, d.Page, d.Reason, d.Message)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
