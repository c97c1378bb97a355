package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the content of path.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// SceneText renders a minimal Maya ASCII scene referencing refs.
func SceneText(refs ...string) string {
	text := "//Maya ASCII 2020 scene\nrequires maya \"2020\";\n"
	for i, ref := range refs {
		text += "file -rdi 1 -ns \"ref" + string(rune('a'+i)) + "\" -rfn \"refRN\" -typ \"mayaAscii\" \"" + ref + "\";\n"
	}
	text += "createNode transform -n \"root\";\n"
	return text
}
