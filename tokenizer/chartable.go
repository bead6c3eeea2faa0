package tokenizer

// Character classification flags. Every scanning decision on an ASCII byte
// is a single table lookup; bytes >= 0x80 are handled by the UTF-8 path.
const (
	charWhitespace       uint8 = 1 << iota // space, tab, CR, LF
	charWhitespaceUnsafe                   // CR, LF (terminate inline values)
	charKeyStart                           // may start a bare identifier
	charKeyContinue                        // may continue a bare identifier
	charValueEnd                           // terminates an unquoted value
	charDigit                              // 0-9
	charEscape                             // valid after backslash in "..."
	charJSONUnsafe                         // must be escaped inside "..."
)

var charTable = buildCharTable()

func buildCharTable() [256]uint8 {
	var t [256]uint8

	for _, c := range []byte{' ', '\t', '\r', '\n'} {
		t[c] |= charWhitespace
	}
	t['\r'] |= charWhitespaceUnsafe
	t['\n'] |= charWhitespaceUnsafe

	for c := byte('a'); c <= 'z'; c++ {
		t[c] |= charKeyStart
	}
	for c := byte('A'); c <= 'Z'; c++ {
		t[c] |= charKeyStart
	}
	t['_'] |= charKeyStart
	t['$'] |= charKeyStart

	for c := byte('0'); c <= '9'; c++ {
		t[c] |= charDigit | charKeyContinue
	}
	for _, c := range []byte{'-', '.', '/', '@'} {
		t[c] |= charKeyContinue
	}
	// Non-ASCII lead bytes start and continue identifiers.
	for c := 0x80; c <= 0xFF; c++ {
		t[c] |= charKeyStart
	}
	for c := range t {
		if t[c]&charKeyStart != 0 {
			t[c] |= charKeyContinue
		}
	}

	for _, c := range []byte{' ', '\t', '\r', '\n', '{', '}', '[', ']', ';', ',', '#', '"', '\'', '=', ':'} {
		t[c] |= charValueEnd
	}

	for _, c := range []byte{'n', 'r', 't', '\\', '"', '/', 'b', 'f', 'x', 'u'} {
		t[c] |= charEscape
	}

	for c := 0; c < 0x20; c++ {
		t[c] |= charJSONUnsafe
	}
	t['"'] |= charJSONUnsafe
	t['\\'] |= charJSONUnsafe

	return t
}

func isWhitespace(r rune) bool {
	return r >= 0 && r < 256 && charTable[r]&charWhitespace != 0
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// isKeyStart reports whether r may begin a bare identifier. Multi-byte
// runes are allowed as long as they are not structural or whitespace;
// the byte table covers the ASCII range.
func isKeyStart(r rune) bool {
	if r < 256 {
		return r >= 0 && charTable[r]&charKeyStart != 0
	}
	return true
}

func isKeyContinue(r rune) bool {
	if r < 256 {
		return r >= 0 && charTable[r]&charKeyContinue != 0
	}
	return true
}

func isValueEnd(r rune) bool {
	return r >= 0 && r < 256 && charTable[r]&charValueEnd != 0
}
