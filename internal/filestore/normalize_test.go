package filestore

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a/b.js", "a/b.js"},
		{"a//b.js", "a/b.js"},
		{"a///b//c.js", "a/b/c.js"},
		{"/a/b.js", "a/b.js"},
		{"./a/b.js", "a/b.js"},
		{".//a", "a"},
		{"a\\b.js", "a/b.js"},
		{"  main.js  ", "main.js"},
		{"/ main.js", "main.js"},
		{"src/", "src"},
		{"src//", "src"},
		{"dir/ ", "dir"},
		{"a/b/ /", "a/b"},
		{"/", ""},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"a//b", "a/b", "//x//y//", "./../a", " / ./a", "\\\\srv\\share", "././a//b/",
		"a/./b", "..//..", "", "/", "./", "main.js",
	}
	for _, p := range inputs {
		once := Normalize(p)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", p, once, twice)
		}
	}
	if Normalize("a//b") != Normalize("a/b") {
		t.Error(`Normalize("a//b") != Normalize("a/b")`)
	}
}

func TestIsFolderPath(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"dir/", true},
		{"dir\\", true},
		{" dir/ ", true},
		{"dir", false},
		{"dir/a.js", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsFolderPath(tt.input); got != tt.want {
			t.Errorf("IsFolderPath(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFolderPlaceholder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"src", "src/.gitkeep"},
		{"src/", "src/.gitkeep"},
		{"/src//lib", "src/lib/.gitkeep"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FolderPlaceholder(tt.input); got != tt.want {
				t.Errorf("FolderPlaceholder(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"main.js", "javascript"},
		{"src/app.TSX", "typescript"},
		{"tool.py", "python"},
		{"Makefile", "plaintext"},
		{".gitkeep", "plaintext"},
		{"notes.", "plaintext"},
		{"a.b/readme", "plaintext"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Language(tt.input); got != tt.want {
				t.Errorf("Language(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
