package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/dcagent/internal/domain"
)

type fakeActionReader struct {
	entries []domain.ActionRecordEntry
	err     error
}

func (f *fakeActionReader) RecordsAfter(index uint64) ([]domain.ActionRecordEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.ActionRecordEntry
	for _, e := range f.entries {
		if e.Index > index {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePriceReader struct {
	sample domain.PriceSample
	ok     bool
}

func (f *fakePriceReader) Latest() (domain.PriceSample, bool) { return f.sample, f.ok }
func (f *fakePriceReader) Len() int {
	if f.ok {
		return 1
	}
	return 0
}

func testEntry(t *testing.T, index uint64) domain.ActionRecordEntry {
	t.Helper()
	record, err := domain.NewSuccessRecord(domain.ActionScheduledBuy,
		decimal.NewFromInt(100), decimal.NewFromFloat(0.0015),
		decimal.NewFromInt(65000), "0xabc", time.Now())
	require.NoError(t, err)
	return domain.ActionRecordEntry{Index: index, Record: record}
}

func TestHandleIndex(t *testing.T) {
	srv := NewServer(":0", &fakeActionReader{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "dcagent dashboard")
}

func TestHandleStatus(t *testing.T) {
	prices := &fakePriceReader{
		sample: domain.PriceSample{
			Time:   time.Now(),
			Price:  decimal.NewFromInt(65000),
			Source: "pyth",
		},
		ok: true,
	}
	srv := NewServer(":0", &fakeActionReader{}, prices)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "65000.00", status.Price)
	assert.Equal(t, "pyth", status.PriceSource)
	assert.Equal(t, 1, status.Samples)
}

func TestHandleStatusWithoutPrices(t *testing.T) {
	srv := NewServer(":0", &fakeActionReader{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Empty(t, status.Price)
	assert.Zero(t, status.Samples)
}

func TestActionStreamReplaysLog(t *testing.T) {
	reader := &fakeActionReader{entries: []domain.ActionRecordEntry{
		testEntry(t, 1),
		testEntry(t, 2),
	}}
	srv := NewServer(":0", reader, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/actions/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(body, "event: action"))
	assert.Contains(t, body, "scheduled_buy")
}

func TestActionStreamWithoutStore(t *testing.T) {
	srv := NewServer(":0", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/actions/stream", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
