package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Attribute is one parsed key/value pair. A nil Value persists as NULL.
type Attribute struct {
	Key   string
	Value *string
}

// attrStrategy interprets an information field as key/value pairs.
// Strategies are pure: they either succeed with pairs or decline.
type attrStrategy func(string) ([]Attribute, bool)

// Strategies are tried in order; the first success wins. The scraped
// exports mostly carry Python-style dict literals, with a minority of
// JSON objects, so the dict reading goes first.
var attrStrategies = []attrStrategy{parseDictLiteral, parseJSONObject}

// ParseProductInformation turns one free-text information field into
// zero or more attributes. It never fails: blank input yields no
// attributes, and input no strategy understands degrades to no
// attributes with ok=false so the caller can count it.
func ParseProductInformation(text string) (attrs []Attribute, ok bool) {
	if strings.TrimSpace(text) == "" {
		return nil, true
	}
	for _, strategy := range attrStrategies {
		if pairs, matched := strategy(text); matched {
			return clean(pairs), true
		}
	}
	return nil, false
}

// clean trims keys and values and drops pairs with an empty key.
// An empty or absent value becomes null rather than the string "None".
func clean(pairs []Attribute) []Attribute {
	out := pairs[:0]
	for _, p := range pairs {
		p.Key = strings.TrimSpace(p.Key)
		if p.Key == "" {
			continue
		}
		if p.Value != nil {
			v := strings.TrimSpace(*p.Value)
			if v == "" {
				p.Value = nil
			} else {
				p.Value = &v
			}
		}
		out = append(out, p)
	}
	return out
}

// --- Strategy 1: Python-style dict literal ---

// parseDictLiteral reads {'Material': 'Cotton', 'Lining': None, ...}.
// Accepted values are quoted strings, None/True/False, and numbers.
func parseDictLiteral(text string) ([]Attribute, bool) {
	p := &literalParser{input: strings.TrimSpace(text)}
	attrs, err := p.parse()
	if err != nil {
		return nil, false
	}
	return attrs, true
}

type literalParser struct {
	input string
	pos   int
}

type literalError struct{ msg string }

func (e *literalError) Error() string { return e.msg }

func (p *literalParser) fail(msg string) error { return &literalError{msg: msg} }

func (p *literalParser) parse() ([]Attribute, error) {
	p.skipSpace()
	if !p.consume('{') {
		return nil, p.fail("no opening brace")
	}

	var attrs []Attribute
	p.skipSpace()
	if p.consume('}') {
		return p.finish(attrs)
	}

	for {
		key, err := p.quotedString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(':') {
			return nil, p.fail("expected colon")
		}
		value, err := p.value()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{Key: key, Value: value})

		p.skipSpace()
		if p.consume(',') {
			p.skipSpace()
			// Tolerate a trailing comma before the closing brace.
			if p.consume('}') {
				return p.finish(attrs)
			}
			continue
		}
		if p.consume('}') {
			return p.finish(attrs)
		}
		return nil, p.fail("expected comma or closing brace")
	}
}

func (p *literalParser) finish(attrs []Attribute) ([]Attribute, error) {
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, p.fail("trailing content after dict")
	}
	return attrs, nil
}

func (p *literalParser) value() (*string, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, p.fail("unexpected end of input")
	}

	switch c := p.input[p.pos]; {
	case c == '\'' || c == '"':
		s, err := p.quotedString()
		if err != nil {
			return nil, err
		}
		return &s, nil
	case p.word("None"):
		return nil, nil
	case p.word("True"):
		s := "True"
		return &s, nil
	case p.word("False"):
		s := "False"
		return &s, nil
	default:
		return p.number()
	}
}

func (p *literalParser) quotedString() (string, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return "", p.fail("unexpected end of input")
	}
	quote := p.input[p.pos]
	if quote != '\'' && quote != '"' {
		return "", p.fail("expected quoted string")
	}
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == quote {
			p.pos++
			return sb.String(), nil
		}
		if c == '\\' && p.pos+1 < len(p.input) {
			p.pos++
			switch esc := p.input[p.pos]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
			p.pos++
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
	return "", p.fail("unterminated string")
}

func (p *literalParser) number() (*string, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	raw := p.input[start:p.pos]
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, p.fail("invalid value")
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return &s, nil
}

// word consumes an exact keyword if present at the cursor.
func (p *literalParser) word(w string) bool {
	if strings.HasPrefix(p.input[p.pos:], w) {
		end := p.pos + len(w)
		if end == len(p.input) || !isIdentChar(p.input[end]) {
			p.pos = end
			return true
		}
	}
	return false
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *literalParser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// --- Strategy 2: JSON object ---

// parseJSONObject reads a flat JSON object of scalar values. Token-level
// decoding keeps key order, which map-based unmarshaling would lose.
func parseJSONObject(text string) ([]Attribute, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}

	var attrs []Attribute
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		value, ok := scalarText(valTok)
		if !ok {
			return nil, false
		}
		attrs = append(attrs, Attribute{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	// Anything after the closing brace means this was not a lone object.
	if dec.More() {
		return nil, false
	}
	return attrs, true
}

func scalarText(tok json.Token) (*string, bool) {
	switch v := tok.(type) {
	case nil:
		return nil, true
	case string:
		return &v, true
	case json.Number:
		s := v.String()
		return &s, true
	case bool:
		s := strconv.FormatBool(v)
		return &s, true
	default:
		// Nested objects and arrays are not attribute material.
		return nil, false
	}
}
