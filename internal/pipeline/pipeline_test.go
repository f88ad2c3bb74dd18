package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendwise/internal/model"
	"github.com/theirongolddev/spendwise/internal/source"
	"github.com/theirongolddev/spendwise/internal/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "spendwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestImport_Incremental(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := openStore(t)

	jan := writeFile(t, dir, "jan.csv", "id,date,title,amount\nj1,2025-01-02,Grocery,40\nj2,2025-01-09,Taxi,15\n")
	writeFile(t, dir, "feb.json", `[{"id":"f1","date":"2025-02-01","title":"Movie","amount":12}]`)

	var mu sync.Mutex
	var calls []int
	res, err := Import(ctx, dir, st, ImportOptions{
		UserID: "u1",
		Progress: func(current, total int) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, current)
			assert.Equal(t, 2, total)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, 2, res.ParsedFiles)
	assert.Equal(t, 3, res.Imported)
	assert.Zero(t, res.Unchanged)
	assert.Len(t, calls, 2)

	txns, err := st.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, txns, 3)

	// Second run sees nothing new.
	res, err = Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Unchanged)
	assert.Zero(t, res.ParsedFiles)

	// Changing one file re-imports only that file; rows keep their IDs.
	require.NoError(t, os.WriteFile(jan, []byte("id,date,title,amount\nj1,2025-01-02,Grocery,45\nj2,2025-01-09,Taxi,15\nj3,2025-01-20,Bus,3\n"), 0o600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(jan, future, future))

	res, err = Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unchanged)
	assert.Equal(t, 1, res.ParsedFiles)
	assert.Equal(t, 3, res.Imported)

	n, err := st.TransactionCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Force re-parses everything.
	res, err = Import(ctx, dir, st, ImportOptions{UserID: "u1", Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ParsedFiles)

	// A removed file is forgotten; its transactions stay.
	require.NoError(t, os.Remove(jan))
	res, err = Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Forgotten)
	assert.Equal(t, 1, res.Unchanged)

	tracked, err := st.GetTrackedFiles(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, tracked, jan)

	n, err = st.TransactionCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestImport_AppendWithoutIDs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := openStore(t)

	path := writeFile(t, dir, "bank.csv", "date,title,amount\n2025-01-02,Coffee,3.50\n2025-01-02,Coffee,3.50\n")
	_, err := Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)

	n, err := st.TransactionCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, os.WriteFile(path, []byte("date,title,amount\n2025-01-02,Coffee,3.50\n2025-01-02,Coffee,3.50\n2025-01-03,Bus,2\n"), 0o600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	res, err := Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ParsedFiles)

	n, err = st.TransactionCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Forcing a re-import adds nothing.
	_, err = Import(ctx, dir, st, ImportOptions{UserID: "u1", Force: true})
	require.NoError(t, err)
	n, err = st.TransactionCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImport_EditedRowReplacesOld(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := openStore(t)

	path := writeFile(t, dir, "bank.csv", "date,title,amount\n2025-01-02,Coffee,3.50\n2025-01-03,Bus,2\n")
	_, err := Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("date,title,amount\n2025-01-02,Coffee,4.00\n2025-01-03,Bus,2\n"), 0o600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	_, err = Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)

	txns, err := st.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "4", txns[0].Amount.String())
}

func TestImport_TrackerPerUser(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := openStore(t)

	writeFile(t, dir, "shared.csv", "date,title,amount\n2025-01-02,Coffee,3.50\n")

	_, err := Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)

	res, err := Import(ctx, dir, st, ImportOptions{UserID: "u2"})
	require.NoError(t, err)
	assert.Zero(t, res.Unchanged)
	assert.Equal(t, 1, res.Imported)

	for _, user := range []string{"u1", "u2"} {
		n, err := st.TransactionCount(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 1, n, user)
	}
}

func TestImport_RelativeDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := openStore(t)
	t.Chdir(dir)

	writeFile(t, dir, "a.csv", "date,title,amount\n2025-01-02,Coffee,3.50\n")
	writeFile(t, dir, "b.csv", "date,title,amount\n2025-01-03,Bus,2\n")

	_, err := Import(ctx, ".", st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)

	tracked, err := st.GetTrackedFiles(ctx, "u1")
	require.NoError(t, err)
	for path := range tracked {
		assert.True(t, filepath.IsAbs(path), path)
	}

	require.NoError(t, os.Remove(filepath.Join(dir, "a.csv")))
	res, err := Import(ctx, ".", st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Forgotten)
	assert.Equal(t, 1, res.Unchanged)
}

func TestImport_ReportsErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := openStore(t)

	writeFile(t, dir, "good.csv", "date,title,amount\n2025-01-02,Grocery,40\n2025-01-03,Bad,-1x\n")
	writeFile(t, dir, "broken.json", `{"oops":`)

	res, err := Import(ctx, dir, st, ImportOptions{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FileErrors)
	assert.Equal(t, 1, res.ParsedFiles)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Invalid)
	assert.Len(t, res.Errors, 2)

	// Broken files are not tracked and are retried next run.
	tracked, err := st.GetTrackedFiles(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, tracked, 1)
}

func TestImport_MissingDir(t *testing.T) {
	res, err := Import(context.Background(), filepath.Join(t.TempDir(), "none"), openStore(t), ImportOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalFiles)
}

type failingStore struct {
	*store.Store
}

func (failingStore) GetTrackedFiles(context.Context, string) (map[string]store.FileInfo, error) {
	return nil, errors.New("db locked")
}

func TestImport_TrackerError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,title,amount\n2025-01-02,Grocery,40\n")

	_, err := Import(context.Background(), dir, failingStore{}, ImportOptions{})
	assert.ErrorContains(t, err, "db locked")
}

func TestParseFiles_Canceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,title,amount\n2025-01-02,Grocery,40\n")
	files, err := source.ScanDir(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ParseFiles(ctx, files, source.Options{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFiles_PositionalResults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "date,title,amount\n2025-01-02,A,1\n")
	writeFile(t, dir, "b.csv", "date,title,amount\n2025-01-02,B,2\n2025-01-03,B,3\n")
	files, err := source.ScanDir(dir)
	require.NoError(t, err)

	results, err := ParseFiles(context.Background(), files, source.Options{}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, results[0].Transactions, 1)
	assert.Len(t, results[1].Transactions, 2)
}

func txnOn(date, category string, typ model.TransactionType) model.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return model.Transaction{ID: date + category, Title: category, Category: category, Type: typ, Date: d, Amount: decimal.NewFromInt(1)}
}

func TestFilters(t *testing.T) {
	txns := []model.Transaction{
		txnOn("2025-01-31", "Food", model.Expense),
		txnOn("2025-02-01", "food", model.Expense),
		txnOn("2025-02-15", "Salary", model.Income),
		txnOn("2025-03-01", "Travel", model.Expense),
	}

	since := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Len(t, FilterByTime(txns, since, until), 2)
	assert.Len(t, FilterByTime(txns, since, time.Time{}), 3)
	assert.Len(t, FilterByTime(txns, time.Time{}, time.Time{}), 4)

	assert.Len(t, FilterByCategory(txns, "FOOD"), 2)
	assert.Len(t, FilterByCategory(txns, ""), 4)

	assert.Len(t, FilterByType(txns, model.Income), 1)
	assert.Len(t, FilterByType(txns, model.Expense), 3)
}

func TestMonthsWindow(t *testing.T) {
	now := time.Date(2025, 3, 17, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		months int
		want   time.Time
	}{
		{0, time.Time{}},
		{1, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{3, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{12, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MonthsWindow(now, tt.months), "months=%d", tt.months)
	}
}
