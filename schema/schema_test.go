package schema_test

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/aallbrig/buildshim/models"
	"github.com/aallbrig/buildshim/schema"
)

const unsetMarker = "<unset>"

// readGolden returns the name/default pairs from testdata in file order.
func readGolden(t *testing.T) [][2]string {
	t.Helper()
	f, err := os.Open("testdata/impl_flags.golden")
	if err != nil {
		t.Fatalf("open golden: %v", err)
	}
	defer f.Close()
	var pairs [][2]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name, def, ok := strings.Cut(sc.Text(), "\t")
		if !ok {
			t.Fatalf("malformed golden line %q", sc.Text())
		}
		pairs = append(pairs, [2]string{name, def})
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return pairs
}

func TestImplFlags_matchGolden(t *testing.T) {
	decls, err := schema.ImplFlags()
	if err != nil {
		t.Fatalf("ImplFlags: %v", err)
	}
	golden := readGolden(t)
	if len(decls) != len(golden) {
		t.Fatalf("len(ImplFlags) = %d, golden has %d", len(decls), len(golden))
	}
	for i, f := range decls {
		got := unsetMarker
		if f.Default != nil {
			got = *f.Default
		}
		if f.Name != golden[i][0] || got != golden[i][1] {
			t.Errorf("entry %d = %s=%q, want %s=%q", i, f.Name, got, golden[i][0], golden[i][1])
		}
		if f.Help == "" {
			t.Errorf("%s has no help text", f.Name)
		}
	}
}

func TestImplFlags_noDuplicates(t *testing.T) {
	decls, err := schema.ImplFlags()
	if err != nil {
		t.Fatalf("ImplFlags: %v", err)
	}
	if dups := schema.Duplicates(decls); len(dups) != 0 {
		t.Errorf("duplicate names in flag table: %v", dups)
	}
}

func TestImplFlags_spotCheck(t *testing.T) {
	s, err := schema.Register(nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	tests := []struct {
		name string
		def  *string
	}{
		{"--build-dir", nil},
		{"--darwin-xcrun-toolchain", models.String("default")},
		{"--cmake-generator", models.String("Unix Makefiles")},
		{"--swift-analyze-code-coverage", models.String("not-merged")},
		{"--ninja-cmake-options", nil},
		{"--reconfigure", nil},
	}
	for _, tt := range tests {
		f, ok := s.Lookup(tt.name)
		if !ok {
			t.Errorf("%s not registered", tt.name)
			continue
		}
		if (f.Default == nil) != (tt.def == nil) || (f.Default != nil && *f.Default != *tt.def) {
			t.Errorf("%s default = %v, want %v", tt.name, f.Default, tt.def)
		}
	}
	if _, ok := s.Lookup("--not-a-flag"); ok {
		t.Error("--not-a-flag should not be registered")
	}
}

func TestDuplicates(t *testing.T) {
	decls := []models.Flag{{Name: "--a"}, {Name: "--b"}, {Name: "--a"}, {Name: "--a"}}
	dups := schema.Duplicates(decls)
	if len(dups) != 1 || dups[0] != "--a" {
		t.Errorf("Duplicates = %v, want [--a]", dups)
	}
}

func TestWith_doesNotMutateReceiver(t *testing.T) {
	base, err := schema.New().With(models.Flag{Name: "--impl"})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	full, err := schema.Register(base)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if base.Len() != 1 {
		t.Errorf("base.Len() = %d after Register, want 1", base.Len())
	}
	if full.Len() != 1+len(readGolden(t)) {
		t.Errorf("full.Len() = %d", full.Len())
	}
	if got := full.Flags()[0].Name; got != "--impl" {
		t.Errorf("first flag = %q, want base flags first", got)
	}
}

func TestWith_identicalDuplicateIgnored(t *testing.T) {
	f := models.Flag{Name: "--ninja-cmake-options", Help: "CMake options used for ninja"}
	s, err := schema.New().With(f, f)
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestWith_conflictingDuplicate(t *testing.T) {
	_, err := schema.New().With(
		models.Flag{Name: "--x", Default: models.String("1")},
		models.Flag{Name: "--x", Default: models.String("0")},
	)
	if !errors.Is(err, schema.ErrConflictingFlag) {
		t.Errorf("err = %v, want ErrConflictingFlag", err)
	}
}

func TestWith_invalidName(t *testing.T) {
	for _, name := range []string{"", "--", "-x", "build-dir", "--a=b"} {
		_, err := schema.New().With(models.Flag{Name: name})
		if !errors.Is(err, schema.ErrInvalidFlagName) {
			t.Errorf("With(%q) err = %v, want ErrInvalidFlagName", name, err)
		}
	}
}

func TestDecode(t *testing.T) {
	in := `
- name: --foo
  help: the foo
  default: "bar"
- name: --baz
  help: the baz
`
	decls, err := schema.Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decls) != 2 {
		t.Fatalf("len = %d, want 2", len(decls))
	}
	if decls[0].DefaultString() != "bar" || decls[1].HasDefault() {
		t.Errorf("decoded defaults wrong: %+v", decls)
	}

	empty, err := schema.Decode(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Errorf("Decode(empty) = %v, %v", empty, err)
	}

	if _, err := schema.Decode(strings.NewReader("name: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestFlagSet(t *testing.T) {
	s, err := schema.Register(nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	fs := s.FlagSet("build-script-impl")
	f := fs.Lookup("cmark-build-type")
	if f == nil {
		t.Fatal("cmark-build-type missing from FlagSet")
	}
	if f.DefValue != "Debug" {
		t.Errorf("DefValue = %q, want Debug", f.DefValue)
	}
	if !strings.Contains(fs.FlagUsages(), "--build-dir") {
		t.Error("FlagUsages missing --build-dir")
	}
}
