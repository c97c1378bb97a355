package mayaref

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sceneText builds a minimal Maya ASCII scene referencing each path.
func sceneText(refs ...string) string {
	var b strings.Builder
	b.WriteString("//Maya ASCII 2022 scene\n")
	b.WriteString("requires maya \"2022\";\n")
	for i, ref := range refs {
		typ := "mayaAscii"
		if strings.HasSuffix(ref, ".mb") {
			typ = "mayaBinary"
		}
		ns := "ref" + string(rune('a'+i))
		b.WriteString("file -rdi 1 -ns \"" + ns + "\" -rfn \"" + ns + "RN\" -typ \"" + typ + "\" \"" + ref + "\";\n")
		b.WriteString("file -r -ns \"" + ns + "\" -dr 1 -rfn \"" + ns + "RN\" -typ \"" + typ + "\" \"" + ref + "\";\n")
	}
	b.WriteString("createNode transform -n \"camera1\";\n")
	return b.String()
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func collect(events *[]Event) Observer {
	return func(ev Event) { *events = append(*events, ev) }
}
