package dxb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unyt-org/datex-core-go/value"
)

// DecompileMode selects the overall layout strategy.
type DecompileMode uint8

const (
	ModeCompact DecompileMode = iota
	ModePretty
)

// DecompileOptions controls how Decompile renders reconstructed DATEX text.
type DecompileOptions struct {
	Mode             DecompileMode
	IndentSize       int    // not read by Decompile; ModePretty only puts each statement on its own line
	IndentChar       string // not read by Decompile
	JSONCompat       bool   // map/object keys always double-quoted text
	Colorized        bool   // wrap literals in ANSI color codes
	AddVariantSuffix bool   // append "u8"/"f32"/... after typed numeric literals
	ResolveSlots     bool   // not read by Decompile, which renders decoded values and no slot instructions
}

// DefaultDecompileOptions is the compact, uncolored rendering used by the
// decompile(compile(v)) round-trip law.
func DefaultDecompileOptions() DecompileOptions {
	return DecompileOptions{Mode: ModeCompact, IndentSize: 2, IndentChar: " "}
}

// Decompile reconstructs human-readable DATEX text from a DXB instruction
// stream: one statement per EndStatement-delimited segment.
func Decompile(dxb []byte, opts DecompileOptions) (string, error) {
	d := NewDecoder(dxb)
	var statements []string
	for !d.Done() {
		v, err := DecodeValue(d)
		if err != nil {
			return "", err
		}
		statements = append(statements, renderValue(v, opts))
		if !d.Done() {
			save := d.pos
			instr, err := d.Next()
			if err != nil {
				return "", err
			}
			if instr.Op != OpEndStatement {
				d.pos = save
			}
		}
	}
	sep := "; "
	if opts.Mode == ModePretty {
		sep = ";\n"
	}
	out := strings.Join(statements, sep)
	if len(statements) > 0 {
		out += ";"
	}
	return out, nil
}

func renderValue(v value.Value, opts DecompileOptions) string {
	return renderCore(v.Inner, opts)
}

func renderCore(inner value.CoreValue, opts DecompileOptions) string {
	switch vv := inner.(type) {
	case value.Null:
		return paint("null", colorKeyword, opts)
	case value.Boolean:
		if vv {
			return paint("true", colorKeyword, opts)
		}
		return paint("false", colorKeyword, opts)
	case value.Text:
		return paint(quoteText(string(vv)), colorText, opts)
	case value.Integer:
		return paint(vv.String(), colorNumber, opts)
	case value.TypedInteger:
		s := vv.BigInt().String()
		if opts.AddVariantSuffix {
			s += vv.Width.String()
		}
		return paint(s, colorNumber, opts)
	case value.Decimal:
		switch vv.DKind {
		case value.DecimalInfPos:
			return paint("infinity", colorNumber, opts)
		case value.DecimalInfNeg:
			return paint("-infinity", colorNumber, opts)
		case value.DecimalNaN:
			return paint("nan", colorNumber, opts)
		case value.DecimalFraction:
			return paint(fmt.Sprintf("%s/%s", vv.Numerator.String(), vv.Denominator.String()), colorNumber, opts)
		default:
			return paint(strconv.FormatFloat(vv.Finite, 'g', -1, 64), colorNumber, opts)
		}
	case value.TypedDecimal:
		s := strconv.FormatFloat(vv.Value, 'g', -1, 64)
		if opts.AddVariantSuffix {
			s += vv.Width.String()
		}
		return paint(s, colorNumber, opts)
	case value.EndpointValue:
		return vv.Endpoint.String()
	case value.List:
		parts := make([]string, len(vv.Items))
		for i, it := range vv.Items {
			parts[i] = renderContainer(it, opts)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case *value.Map:
		entries := vv.Entries()
		parts := make([]string, len(entries))
		for i, e := range entries {
			parts[i] = renderMapKey(e.Key, opts) + ":" + renderContainer(e.Value, opts)
		}
		return "{" + strings.Join(parts, ",") + "}"
	case value.Tuple:
		parts := make([]string, len(vv.Items))
		for i, it := range vv.Items {
			parts[i] = renderContainer(it, opts)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case value.Object:
		parts := make([]string, len(vv.Fields))
		for i, f := range vv.Fields {
			name := f.Name
			if opts.JSONCompat {
				name = quoteText(name)
			}
			parts[i] = name + ":" + renderContainer(f.Value, opts)
		}
		prefix := vv.TypeName
		return prefix + "{" + strings.Join(parts, ",") + "}"
	case value.Range:
		return fmt.Sprintf("%s..%s", vv.Start.String(), vv.End.String())
	case value.Type:
		return vv.Path.String()
	default:
		return fmt.Sprintf("<%s>", inner.Kind())
	}
}

func renderContainer(c value.ValueContainer, opts DecompileOptions) string {
	v, ok := c.(value.Value)
	if !ok {
		return "<reference>"
	}
	return renderCore(v.Inner, opts)
}

func renderMapKey(c value.ValueContainer, opts DecompileOptions) string {
	v, ok := c.(value.Value)
	if ok {
		if t, ok := v.Inner.(value.Text); ok {
			return quoteText(string(t))
		}
	}
	if opts.JSONCompat {
		return quoteText(renderContainer(c, opts))
	}
	return renderContainer(c, opts)
}

func quoteText(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}

// ANSI palette used when DecompileOptions.Colorized is set.
const (
	colorReset   = "\x1b[0m"
	colorNumber  = "\x1b[33m"
	colorText    = "\x1b[32m"
	colorKeyword = "\x1b[35m"
)

func paint(s, color string, opts DecompileOptions) string {
	if !opts.Colorized {
		return s
	}
	return color + s + colorReset
}
