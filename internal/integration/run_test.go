package integration

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boo-lang/boo/internal/ast"
	"github.com/boo-lang/boo/internal/interp"
	"github.com/boo-lang/boo/internal/testutil"
)

func runFile(t *testing.T, path string) (string, error) {
	t.Helper()
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	_, err = interp.Run(filepath.Base(path), src, interp.WithOutput(&out))
	return out.String(), err
}

func readGolden(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func scripts(t *testing.T, pattern string) []string {
	t.Helper()
	paths, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatalf("no scripts match %s", pattern)
	}
	return paths
}

func TestScripts(t *testing.T) {
	for _, path := range scripts(t, "testdata/*.boo") {
		name := strings.TrimSuffix(filepath.Base(path), ".boo")
		t.Run(name, func(t *testing.T) {
			output, err := runFile(t, path)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			expected := readGolden(t, strings.TrimSuffix(path, ".boo")+".out")
			if output != expected {
				t.Errorf("expected %q, got %q", expected, output)
			}
		})
	}
}

func TestErrorScripts(t *testing.T) {
	for _, path := range scripts(t, "testdata/errors/*.boo") {
		name := strings.TrimSuffix(filepath.Base(path), ".boo")
		t.Run(name, func(t *testing.T) {
			output, err := runFile(t, path)
			if err == nil {
				t.Fatal("expected an error, got none")
			}

			base := strings.TrimSuffix(path, ".boo")
			expectedErr := strings.TrimSpace(readGolden(t, base+".err"))
			if err.Error() != expectedErr {
				t.Errorf("expected error %q, got %q", expectedErr, err.Error())
			}
			expectedOut := readGolden(t, base+".out")
			if output != expectedOut {
				t.Errorf("expected output %q before the error, got %q", expectedOut, output)
			}
		})
	}
}

// Printing a program, parsing the result and printing again must give the
// same text, and both versions must behave the same.
func TestPrinterRoundTrip(t *testing.T) {
	for _, path := range scripts(t, "testdata/*.boo") {
		name := strings.TrimSuffix(filepath.Base(path), ".boo")
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			program, _, err := testutil.ParseProgram(string(src))
			if err != nil {
				t.Fatal(err)
			}
			printed := ast.Print(program)

			reparsed, _, err := testutil.ParseProgram(printed)
			if err != nil {
				t.Fatalf("printed program does not parse: %s\n%s", err, printed)
			}
			if again := ast.Print(reparsed); again != printed {
				t.Errorf("printer is not a fixed point:\n%s\n---\n%s", printed, again)
			}

			original, _, err := testutil.RunSource(string(src))
			if err != nil {
				t.Fatal(err)
			}
			roundTripped, _, err := testutil.RunSource(printed)
			if err != nil {
				t.Fatalf("printed program failed: %s\n%s", err, printed)
			}
			if original != roundTripped {
				t.Errorf("output changed after printing: %q vs %q", original, roundTripped)
			}
		})
	}
}
