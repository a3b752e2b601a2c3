// apps/go-server/assets/embed.go
//
// Embedded data files.
//   - words.txt: default word list the word service seeds itself with when
//     no WORDS_FILE is configured.

package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed words.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// DefaultWords returns the embedded word list, lowercased.
func DefaultWords() ([]string, error) {
	return readLines("words.txt")
}
