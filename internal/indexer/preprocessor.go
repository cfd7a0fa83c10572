package indexer

import "strings"

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\x00", "")

// Preprocess normalizes extracted text before chunking: line endings become "\n",
// NUL bytes are dropped and outer whitespace is trimmed. Inner whitespace is kept
// because the chunker splits on it.
func Preprocess(text string) string {
	return strings.TrimSpace(lineEndings.Replace(text))
}
