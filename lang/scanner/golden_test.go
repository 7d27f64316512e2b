package scanner_test

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/corvid/internal/filetest"
	"github.com/mna/corvid/lang/scanner"
	"github.com/mna/corvid/lang/token"
)

var testUpdateScannerTests = flag.Bool("test.update-scanner-tests", false, "If set, replace expected scanner golden results with actual results.")

// TestScanGolden tokenizes every file in testdata/in and diffs a one-token-
// per-line dump against the matching golden file in testdata/out, in the
// style of the scanner's own golden-file tests.
func TestScanGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".crv") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			var sc scanner.Scanner
			sc.Init(string(src))

			var sb strings.Builder
			for {
				tok := sc.Next()
				sb.WriteString(tok.String())
				sb.WriteByte('\n')
				if tok.Kind == token.EOF {
					break
				}
			}

			filetest.DiffOutput(t, fi, sb.String(), resultDir, testUpdateScannerTests)
		})
	}
}
