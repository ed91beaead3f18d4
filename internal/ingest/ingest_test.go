package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"choromap/internal/measure"
	"choromap/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	rows  []measure.Row
	batch int
	count int64
	err   error
}

func (m *memSink) UpsertRows(_ context.Context, rows []measure.Row, batch int) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.rows = append(m.rows, rows...)
	m.batch = batch
	return len(rows), nil
}

func (m *memSink) CountRows(context.Context) (int64, error) { return m.count, nil }

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "measures.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

const csvBody = "NUTS_ID,forgottenVoters,lowTrust,pessimism\nDED2,45.2,60,N/A\n,1,2,3\nDE30,30,,70\n"

func TestFetchAndImport(t *testing.T) {
	p := writeCSV(t, csvBody)
	sink := &memSink{}
	res, err := FetchAndImport(context.Background(), sink, source.NewFetcher(nil, nil), p, Options{Batch: 100})
	require.NoError(t, err)
	assert.Equal(t, Result{Parsed: 3, Skipped: 1, Written: 2}, res)
	require.Len(t, sink.rows, 2)
	assert.Equal(t, "DED2", sink.rows[0][measure.IDColumn])
	assert.Equal(t, 100, sink.batch)
}

func TestFetchAndImportSkipsBlankIDs(t *testing.T) {
	p := writeCSV(t, "NUTS_ID,forgottenVoters,lowTrust,pessimism\n\"   \",1,2,3\nDE30 ,30,,70\n")
	sink := &memSink{}
	res, err := FetchAndImport(context.Background(), sink, source.NewFetcher(nil, nil), p, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Parsed: 2, Skipped: 1, Written: 1}, res, "空白 id 计入跳过")
	require.Len(t, sink.rows, 1)
	assert.Equal(t, "DE30", sink.rows[0][measure.IDColumn], "写入前去除 id 首尾空白")
}

func TestFetchAndImportDryRun(t *testing.T) {
	p := writeCSV(t, csvBody)
	sink := &memSink{}
	res, err := FetchAndImport(context.Background(), sink, source.NewFetcher(nil, nil), p, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Written)
	assert.Empty(t, sink.rows)
}

func TestFetchAndImportErrors(t *testing.T) {
	_, err := FetchAndImport(context.Background(), &memSink{}, source.NewFetcher(nil, nil), filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.ErrorIs(t, err, source.ErrUnavailable)

	boom := errors.New("boom")
	_, err = FetchAndImport(context.Background(), &memSink{err: boom}, source.NewFetcher(nil, nil), writeCSV(t, csvBody), Options{})
	assert.ErrorIs(t, err, boom)
}

func TestEnsureInitialized(t *testing.T) {
	p := writeCSV(t, csvBody)
	full := &memSink{count: 5}
	require.NoError(t, EnsureInitialized(context.Background(), full, source.NewFetcher(nil, nil), p))
	assert.Empty(t, full.rows)

	empty := &memSink{}
	require.NoError(t, EnsureInitialized(context.Background(), empty, source.NewFetcher(nil, nil), p))
	assert.Len(t, empty.rows, 2)

	require.NoError(t, EnsureInitialized(context.Background(), &memSink{}, source.NewFetcher(nil, nil), ""))
}
