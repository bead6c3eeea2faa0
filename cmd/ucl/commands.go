package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/shibukawa/ucl"
	"github.com/shibukawa/ucl/diag"
	"github.com/shibukawa/ucl/expand"
	"github.com/shibukawa/ucl/parser"
	"github.com/shibukawa/ucl/tokenizer"
)

// Sentinel errors
var (
	ErrCheckFailed       = errors.New("one or more files failed to parse")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrInvalidVarSpec    = errors.New("variable must be given as NAME=VALUE")
	ErrInputFileNotExist = errors.New("input file does not exist")
	ErrMalformedEnvFile  = errors.New("failed to load environment file")
)

// varFlags builds the variable handler chain shared by the commands.
type varFlags struct {
	Var     []string `help:"Define a variable as NAME=VALUE" short:"D"`
	EnvFile string   `help:"Load variables from a dotenv file" type:"path"`
	Env     bool     `help:"Resolve variables from the process environment"`
}

func (v *varFlags) install(p *parser.Parser, config *Config) error {
	if len(config.Variables) > 0 {
		p.AddVariableHandler(expand.MapHandler(config.Variables))
	}

	if len(v.Var) > 0 {
		vars := make(map[string]string, len(v.Var))
		for _, spec := range v.Var {
			name, value, ok := cutVar(spec)
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidVarSpec, spec)
			}
			vars[name] = value
		}
		p.AddVariableHandler(expand.MapHandler(vars))
	}

	if v.EnvFile != "" {
		vars, err := godotenv.Read(v.EnvFile)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEnvFile, err)
		}
		p.AddVariableHandler(expand.MapHandler(vars))
	}

	if v.Env {
		p.AddVariableHandler(expand.EnvHandler{})
	}

	return nil
}

func cutVar(spec string) (string, string, bool) {
	for i := range len(spec) {
		if spec[i] == '=' {
			return spec[:i], spec[i+1:], i > 0
		}
	}
	return "", "", false
}

func parseFile(path string, config *Config, vars *varFlags) (ucl.Value, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrInputFileNotExist, path)
		}
		return nil, "", err
	}

	src := string(data)

	p := parser.New(src, config.ParserOptions())
	if err := vars.install(p, config); err != nil {
		return nil, "", err
	}

	value, err := p.ParseDocument()

	return value, src, err
}

// reportError renders a parse failure with source context.
func reportError(path, src string, err error, noColor bool) {
	var uclErr *ucl.Error
	if !errors.As(err, &uclErr) {
		color.Red("%s: %v", path, err)
		return
	}

	fmt.Fprintf(color.Error, "%s:\n", path)
	report := diag.Report{
		Span:        uclErr.Span(),
		Cause:       uclErr.Err.Error(),
		Suggestions: uclErr.Suggestions(),
	}
	fmt.Fprint(color.Error, diag.Render(src, report, diag.Options{
		ContextLines: 2,
		Color:        !noColor,
	}))
}

// CheckCmd represents the check command
type CheckCmd struct {
	varFlags
	Files []string `arg:"" help:"UCL files to check" type:"existingfile"`
}

func (cmd *CheckCmd) Run(ctx *Context) error {
	config, err := LoadConfig(ctx.Config)
	if err != nil {
		return err
	}

	failed := 0

	for _, path := range cmd.Files {
		_, src, err := parseFile(path, config, &cmd.varFlags)
		if err != nil {
			failed++
			reportError(path, src, err, ctx.NoColor)
			continue
		}
		if ctx.Verbose {
			color.Green("%s: OK", path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCheckFailed, failed, len(cmd.Files))
	}

	return nil
}

// ConvertCmd represents the convert command
type ConvertCmd struct {
	varFlags
	File   string `arg:"" help:"UCL file to convert" type:"existingfile"`
	Format string `help:"Output format (yaml or json)" default:"yaml" enum:"yaml,json"`
}

func (cmd *ConvertCmd) Run(ctx *Context) error {
	config, err := LoadConfig(ctx.Config)
	if err != nil {
		return err
	}

	value, src, err := parseFile(cmd.File, config, &cmd.varFlags)
	if err != nil {
		reportError(cmd.File, src, err, ctx.NoColor)
		return err
	}

	switch cmd.Format {
	case "json":
		out, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(toOrdered(value))
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, cmd.Format)
	}

	return nil
}

// toOrdered converts a tree to YAML-encodable values keeping object key
// order through yaml.MapSlice.
func toOrdered(v ucl.Value) any {
	switch t := v.(type) {
	case *ucl.Object:
		out := make(yaml.MapSlice, 0, t.Len())
		for k, e := range t.Items() {
			out = append(out, yaml.MapItem{Key: k, Value: toOrdered(e)})
		}
		return out
	case ucl.Array:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toOrdered(e)
		}
		return out
	default:
		return ucl.ToAny(v)
	}
}

// TokensCmd represents the tokens command
type TokensCmd struct {
	File     string `arg:"" help:"UCL file to tokenize" type:"existingfile"`
	Comments bool   `help:"Include comment tokens"`
}

func (cmd *TokensCmd) Run(ctx *Context) error {
	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return err
	}

	opts := tokenizer.DefaultOptions()
	opts.SaveComments = cmd.Comments

	tok := tokenizer.New(string(data), opts)

	for t, err := range tok.Tokens() {
		if err != nil {
			reportError(cmd.File, string(data), &ucl.Error{Stage: ucl.StageLex, Err: err}, ctx.NoColor)
			return err
		}
		fmt.Printf("%4d:%-3d %-12s %q\n", t.Span.Start.Line, t.Span.Start.Column, t.Type, t.Text)
		if t.Type == tokenizer.EOF {
			break
		}
	}

	return nil
}
