package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	calls   int
	to      []string
	subject string
	body    string
}

func (f *fakeSender) Send(_ context.Context, to []string, subject, text, _ string) error {
	f.calls++
	f.to, f.subject, f.body = to, subject, text
	return nil
}

func TestHarvestReporterSkipsCleanRuns(t *testing.T) {
	fs := &fakeSender{}
	r := NewHarvestReporter(fs, []string{"ops@brand.test"})
	require.NoError(t, r.Report(context.Background(), HarvestSummary{Date: "2026-10-01", Processed: 3, Saved: 3}))
	assert.Zero(t, fs.calls)
}

func TestHarvestReporterSendsFailures(t *testing.T) {
	fs := &fakeSender{}
	r := NewHarvestReporter(fs, []string{"ops@brand.test"})
	err := r.Report(context.Background(), HarvestSummary{
		Date: "2026-10-01", Processed: 3, Saved: 2, Failed: 1,
		Failures: []HarvestFailure{{AccountID: "acc-9", Reason: "decrypt_failed"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fs.calls)
	assert.Equal(t, []string{"ops@brand.test"}, fs.to)
	assert.Contains(t, fs.subject, "1/3")
	assert.Contains(t, fs.body, "acc-9: decrypt_failed")
	assert.Contains(t, fs.body, "Guardadas:  2")
}
