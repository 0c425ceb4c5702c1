package rules

import (
	"strings"

	"github.com/klyr/fastpat/internal/signature"
)

// ParseRule compiles one rule. text is either a full rule with a header and
// a parenthesised option list, or the option list alone.
func ParseRule(text string) (*signature.Signature, error) {
	body := strings.TrimSpace(text)
	if open := strings.IndexByte(body, '('); open >= 0 && !strings.ContainsAny(body[:open], `:;"`) {
		end := strings.LastIndexByte(body, ')')
		if end < open {
			return nil, signature.ParseErrorf("", signature.ReasonSyntax, "unbalanced parentheses in rule")
		}
		body = body[open+1 : end]
	}

	options, err := splitOptions(body)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, signature.ParseErrorf("", signature.ReasonSyntax, "rule has no options")
	}

	sig := signature.New(strings.TrimSpace(text))
	for _, opt := range options {
		sig.Options = append(sig.Options, opt)
		setup, ok := keywords[opt.Keyword]
		if !ok {
			continue
		}
		if err := setup(sig, opt.Args); err != nil {
			return nil, err
		}
	}
	return sig, nil
}

// splitOptions cuts "kw:args; kw;" into options. Semicolons inside quotes or
// escaped with a backslash do not end an option.
func splitOptions(body string) ([]signature.Option, error) {
	var (
		out     []signature.Option
		start   int
		inQuote bool
		escaped bool
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inQuote = !inQuote
		case ch == ';' && !inQuote:
			opt, ok := newOption(body[start:i])
			if ok {
				out = append(out, opt)
			}
			start = i + 1
		}
	}
	if inQuote {
		return nil, signature.ParseErrorf("", signature.ReasonSyntax, "unterminated quoted string")
	}
	if rest := strings.TrimSpace(body[start:]); rest != "" {
		return nil, signature.ParseErrorf("", signature.ReasonSyntax, "option %q is not terminated by ';'", rest)
	}
	return out, nil
}

func newOption(raw string) (signature.Option, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return signature.Option{}, false
	}
	keyword, args, _ := strings.Cut(raw, ":")
	return signature.Option{
		Keyword: strings.TrimSpace(keyword),
		Args:    strings.TrimSpace(args),
	}, true
}

// decodeContent turns a content argument into its literal bytes.
func decodeContent(arg string) (pattern []byte, negated bool, err error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "!") {
		negated = true
		arg = strings.TrimSpace(arg[1:])
	}
	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return nil, false, signature.ParseErrorf("content", signature.ReasonBadArgument, "content %q must be quoted", arg)
	}
	inner := arg[1 : len(arg)-1]

	var (
		hexMode bool
		nibble  = -1
	)
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		if hexMode {
			switch {
			case ch == '|':
				if nibble >= 0 {
					return nil, false, signature.ParseErrorf("content", signature.ReasonBadArgument, "odd number of hex digits in %q", inner)
				}
				hexMode = false
			case ch == ' ':
			case isHex(ch):
				if nibble < 0 {
					nibble = int(hexValue(ch))
				} else {
					pattern = append(pattern, byte(nibble<<4)|hexValue(ch))
					nibble = -1
				}
			default:
				return nil, false, signature.ParseErrorf("content", signature.ReasonBadArgument, "invalid hex byte %q in %q", ch, inner)
			}
			continue
		}

		switch ch {
		case '|':
			hexMode = true
		case '\\':
			if i+1 >= len(inner) {
				return nil, false, signature.ParseErrorf("content", signature.ReasonBadArgument, "trailing escape in %q", inner)
			}
			i++
			switch inner[i] {
			case '"', '\\', ';', ':':
				pattern = append(pattern, inner[i])
			default:
				return nil, false, signature.ParseErrorf("content", signature.ReasonBadArgument, "invalid escape \\%c in %q", inner[i], inner)
			}
		case '"':
			return nil, false, signature.ParseErrorf("content", signature.ReasonBadArgument, "unescaped quote in %q", inner)
		default:
			pattern = append(pattern, ch)
		}
	}
	if hexMode {
		return nil, false, signature.ParseErrorf("content", signature.ReasonBadArgument, "unterminated hex block in %q", inner)
	}
	if len(pattern) == 0 {
		return nil, false, signature.Invalidf("content", signature.ReasonEmptyContent, "content is empty")
	}
	return pattern, negated, nil
}

func isHex(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func hexValue(ch byte) byte {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0'
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10
	default:
		return ch - 'A' + 10
	}
}
