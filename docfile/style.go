package docfile

import (
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"folio/flow"
)

// styleValue is one parsed CSS declaration value. Numeric declarations fill
// Value/Unit, everything else lands in Keyword; Raw always keeps the source
// text.
type styleValue struct {
	Value   float64
	Unit    string
	Keyword string
	Raw     string
}

// parseStyleAttr tokenizes an inline style attribute into per-property
// values. Malformed declarations are skipped, never fatal.
func parseStyleAttr(style string, log *zap.Logger) map[string]styleValue {
	props := make(map[string]styleValue)
	if strings.TrimSpace(style) == "" {
		return props
	}

	parser := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				log.Debug("inline style parse error", zap.String("style", style), zap.Error(err))
			}
			return props
		case css.DeclarationGrammar:
			name := strings.ToLower(string(data))
			if v, ok := declarationValue(parser.Values()); ok {
				props[name] = v
			}
		case css.CustomPropertyGrammar:
			continue
		}
	}
}

func declarationValue(tokens []css.Token) (styleValue, bool) {
	if len(tokens) == 0 {
		return styleValue{}, false
	}

	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	val := styleValue{Raw: strings.TrimSpace(strings.Join(rawParts, ""))}

	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Value, val.Unit = splitDimension(string(t.Data))
		case css.PercentageToken:
			val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = strings.Trim(string(t.Data), `"'`)
		case css.HashToken:
			val.Keyword = string(t.Data)
		default:
			val.Keyword = val.Raw
		}
		return val, true
	}
	val.Keyword = val.Raw
	return val, true
}

// splitDimension separates a dimension token into number and unit.
func splitDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, strings.ToLower(s[numEnd:])
}

// toPoints converts a dimension to points. Unitless values pass through.
func toPoints(v styleValue) float64 {
	switch v.Unit {
	case "", "pt":
		return v.Value
	case "px":
		return v.Value * 72.0 / 96.0
	case "in":
		return v.Value * 72.0
	case "pc":
		return v.Value * 12.0
	case "mm":
		return v.Value * 72.0 / 25.4
	case "cm":
		return v.Value * 72.0 / 2.54
	}
	return v.Value
}

// applyParagraphStyle maps known paragraph properties onto block attributes;
// unrecognized properties are preserved verbatim in Attrs.Style.
func applyParagraphStyle(attrs *flow.Attrs, props map[string]styleValue) {
	for name, v := range props {
		switch name {
		case "margin-top":
			attrs.SpacingBefore = toPoints(v)
		case "margin-bottom":
			attrs.SpacingAfter = toPoints(v)
		case "text-indent":
			attrs.Indent = toPoints(v)
		case "line-height":
			if v.Unit == "" && v.Value > 0 {
				attrs.LineSpacing = v.Value
			}
		default:
			if attrs.Style == nil {
				attrs.Style = make(map[string]string)
			}
			attrs.Style[name] = v.Raw
		}
	}
}

// applyFormatStyle maps character properties onto a run format.
func applyFormatStyle(f *flow.Format, props map[string]styleValue) {
	for name, v := range props {
		switch name {
		case "font-weight":
			f.Bold = v.Keyword == "bold" || v.Value >= 600
		case "font-style":
			f.Italic = v.Keyword == "italic" || v.Keyword == "oblique"
		case "font-size":
			f.Size = toPoints(v)
		case "font-family":
			f.Font = v.Keyword
			if f.Font == "" {
				f.Font = v.Raw
			}
		case "color":
			if v.Keyword != "" {
				f.Color = v.Keyword
			} else {
				f.Color = v.Raw
			}
		case "letter-spacing":
			f.LetterSpacing = toPoints(v)
		}
	}
}
