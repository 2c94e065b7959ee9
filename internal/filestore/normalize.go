package filestore

import "strings"

// Normalize canonicalises a file path so that lookups and writes agree on one
// key: surrounding whitespace is trimmed, backslashes become slashes, runs of
// slashes collapse to one, leading "./" or "/" is dropped and so is a
// trailing "/".
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")

	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	p = b.String()

	for {
		before := p
		p = strings.TrimSpace(p)
		p = strings.TrimSuffix(p, "/")
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		}
		if p == before {
			return p
		}
	}
}

// IsFolderPath reports whether p, as sent by a client, names a directory
// rather than a file.
func IsFolderPath(p string) bool {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	return strings.HasSuffix(p, "/")
}

// FolderPlaceholder is the file that stands in for a directory.
func FolderPlaceholder(folder string) string {
	folder = strings.TrimSuffix(Normalize(folder), "/")
	if folder == "" {
		return ""
	}
	return Normalize(folder + "/.gitkeep")
}

var languageByExt = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"mjs":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"go":   "go",
	"java": "java",
	"c":    "c",
	"h":    "c",
	"cpp":  "cpp",
	"cc":   "cpp",
	"hpp":  "cpp",
	"cs":   "csharp",
	"rb":   "ruby",
	"rs":   "rust",
	"php":  "php",
	"html": "html",
	"css":  "css",
	"json": "json",
	"md":   "markdown",
	"sh":   "shell",
	"sql":  "sql",
	"yml":  "yaml",
	"yaml": "yaml",
}

// Language guesses the editor language from the file extension.
func Language(name string) string {
	base := name
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndex(base, ".")
	if i <= 0 || i == len(base)-1 {
		return "plaintext"
	}
	if lang, ok := languageByExt[strings.ToLower(base[i+1:])]; ok {
		return lang
	}
	return "plaintext"
}
