package mayaref

import (
	"reflect"
	"testing"
)

func TestExtractReference(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
		ok   bool
	}{
		{
			name: "reference node line",
			line: `file -rdi 1 -ns "char" -rfn "charRN" -typ "mayaAscii" "/proj/char_v1.ma";`,
			want: "/proj/char_v1.ma",
			ok:   true,
		},
		{
			name: "binary type token",
			line: `file -r -ns "prop" -dr 1 -typ "mayaBinary" "/proj/prop_v2.mb";`,
			want: "/proj/prop_v2.mb",
			ok:   true,
		},
		{
			name: "continuation line",
			line: `		"D:/proj/set.ma";`,
			want: "D:/proj/set.ma",
			ok:   true,
		},
		{
			name: "trailing whitespace and CRLF",
			line: "file -r -typ \"mayaAscii\" \"/proj/a.ma\";  \r\n",
			want: "/proj/a.ma",
			ok:   true,
		},
		{
			name: "non-ascii path",
			line: `file -r -typ "mayaAscii" "/项目/角色.ma";`,
			want: "/项目/角色.ma",
			ok:   true,
		},
		{name: "empty", line: "   ", ok: false},
		{name: "requires line", line: `requires maya "2022";`, ok: false},
		{name: "setAttr with scene-like string", line: `setAttr ".fn" -type "string" "/tex/a.ma";`, ok: false},
		{name: "unterminated", line: `file -r -typ "mayaAscii" "/proj/a.ma"`, ok: false},
		{name: "other extension", line: `file -r -typ "OBJ" "/proj/a.obj";`, ok: false},
		{name: "short line", line: `.ma";`, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractReference(tt.line)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("ExtractReference(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractReferencesDedupesWithinScene(t *testing.T) {
	text := sceneText("/proj/char_v1.ma", "/proj/prop_v2.mb") +
		`file -r -ns "char2" -rfn "char2RN" -typ "mayaAscii" "/proj/char_v1.ma";` + "\n"
	got := ExtractReferences(text)
	want := []string{"/proj/char_v1.ma", "/proj/prop_v2.mb"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractReferences = %v, want %v", got, want)
	}
}

func TestExtractReferencesIgnoresArbitraryQuotedStrings(t *testing.T) {
	text := "//Maya ASCII 2022 scene\n" +
		"fileInfo \"application\" \"maya\";\n" +
		"createNode script -n \"uiConfigurationScriptNode\";\n" +
		"\tsetAttr \".b\" -type \"string\" \"// notes about shot.ma\";\n"
	if got := ExtractReferences(text); len(got) != 0 {
		t.Fatalf("expected no references, got %v", got)
	}
}
