package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/spendwise/internal/analytics"
	"github.com/theirongolddev/spendwise/internal/source"
	"github.com/theirongolddev/spendwise/internal/store"
)

var benchTitles = []string{"Grocery run", "Uber ride", "Amazon order", "Netflix", "Electric bill", "Pharmacy", "Book shop", "Hotel"}

// writeBenchFiles creates n CSV files of rows transactions each.
func writeBenchFiles(b *testing.B, n, rows int) string {
	b.Helper()
	dir := b.TempDir()
	for f := 0; f < n; f++ {
		var sb strings.Builder
		sb.WriteString("date,title,amount\n")
		for r := 0; r < rows; r++ {
			fmt.Fprintf(&sb, "2024-%02d-%02d,%s,%d.%02d\n", r%12+1, r%28+1, benchTitles[r%len(benchTitles)], 5+r%200, r%100)
		}
		path := filepath.Join(dir, fmt.Sprintf("export-%03d.csv", f))
		if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
			b.Fatal(err)
		}
	}
	return dir
}

func BenchmarkParseFiles(b *testing.B) {
	dir := writeBenchFiles(b, 16, 500)
	files, err := source.ScanDir(dir)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseFiles(context.Background(), files, source.Options{UserID: "bench"}, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkImportUnchanged(b *testing.B) {
	dir := writeBenchFiles(b, 16, 500)
	st, err := store.Open(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	if _, err := Import(ctx, dir, st, ImportOptions{UserID: "bench"}); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Import(ctx, dir, st, ImportOptions{UserID: "bench"}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngine(b *testing.B) {
	dir := writeBenchFiles(b, 4, 2500)
	files, err := source.ScanDir(dir)
	if err != nil {
		b.Fatal(err)
	}
	results, err := ParseFiles(context.Background(), files, source.Options{UserID: "bench"}, nil)
	if err != nil {
		b.Fatal(err)
	}
	var txns = results[0].Transactions
	for _, r := range results[1:] {
		txns = append(txns, r.Transactions...)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = analytics.PredictNextPeriod(txns, "")
		_ = analytics.DetectAllAnomalies(txns)
		_ = analytics.GenerateInsights(txns, nil)
	}
}
