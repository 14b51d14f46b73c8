package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeFlow struct {
	records []RawRecord
	err     error
	delay   time.Duration
}

func (f *fakeFlow) Fetch(ctx context.Context, minPremium float64) ([]RawRecord, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.records, f.err
}

type fakeFeed struct {
	records []RawRecord
	err     error
}

func (f *fakeFeed) Fetch(ctx context.Context) ([]RawRecord, error) {
	return f.records, f.err
}

type fakeGex struct {
	levels map[string][]GexLevel
	err    error
}

func (f *fakeGex) Fetch(ctx context.Context, ticker string) ([]GexLevel, error) {
	if f.err != nil {
		return nil, f.err
	}
	levels, ok := f.levels[ticker]
	if !ok {
		return nil, ErrNotFound
	}
	return levels, nil
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	gateway := NewGateway(
		&fakeFlow{records: []RawRecord{{"ticker": "NVDA"}}},
		&fakeFeed{err: errors.New("status 500")},
		&fakeFeed{records: []RawRecord{{"ticker": "TSLA"}, {"ticker": "AMD"}}},
		nil,
		time.Second,
		zap.NewNop(),
	)

	records, errs := gateway.FetchAll(context.Background(), 100_000)

	if len(records[NameFlow]) != 1 {
		t.Errorf("expected 1 flow record, got %d", len(records[NameFlow]))
	}
	if len(records[NameMomentum]) != 2 {
		t.Errorf("expected 2 momentum records, got %d", len(records[NameMomentum]))
	}
	if records[NameVolume] != nil {
		t.Errorf("failed source must contribute nil records, got %v", records[NameVolume])
	}
	if errs[NameVolume] == "" {
		t.Error("failed source must appear in the error map")
	}
	if len(errs) != 1 {
		t.Errorf("expected exactly 1 error, got %v", errs)
	}
}

func TestFetchAllTimeout(t *testing.T) {
	gateway := NewGateway(
		&fakeFlow{delay: time.Second},
		&fakeFeed{records: []RawRecord{{"ticker": "TSLA"}}},
		&fakeFeed{},
		nil,
		20*time.Millisecond,
		zap.NewNop(),
	)

	start := time.Now()
	records, errs := gateway.FetchAll(context.Background(), 0)

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("fetch should respect the shared deadline, took %v", elapsed)
	}
	if errs[NameFlow] == "" {
		t.Error("slow source must report a timeout error")
	}
	if len(records[NameVolume]) != 1 {
		t.Error("fast sources must still deliver")
	}
}

func TestSourceNames(t *testing.T) {
	gateway := NewGateway(&fakeFlow{}, nil, &fakeFeed{}, nil, time.Second, zap.NewNop())

	names := gateway.SourceNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 configured sources, got %v", names)
	}
	if names[0] != NameFlow || names[1] != NameMomentum {
		t.Errorf("unexpected names %v", names)
	}
}

func TestFetchAllSkipsUnconfiguredSources(t *testing.T) {
	gateway := NewGateway(&fakeFlow{records: []RawRecord{{"ticker": "NVDA"}}}, nil, nil, nil, time.Second, zap.NewNop())

	records, errs := gateway.FetchAll(context.Background(), 0)
	if len(records) != 1 {
		t.Errorf("expected only the flow source, got %v", records)
	}
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestFetchGexProfiles(t *testing.T) {
	gex := &fakeGex{levels: map[string][]GexLevel{
		"NVDA": {{Strike: 900, Gex: 1e9}},
		"TSLA": {{Strike: 250, Gex: -2e9}},
	}}
	gateway := NewGateway(&fakeFlow{}, nil, nil, gex, time.Second, zap.NewNop())

	profiles := gateway.FetchGexProfiles(context.Background(), []string{"NVDA", "TSLA", "MISSING"})

	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if len(profiles["NVDA"]) != 1 || profiles["NVDA"][0].Strike != 900 {
		t.Errorf("unexpected NVDA profile %v", profiles["NVDA"])
	}
	if _, ok := profiles["MISSING"]; ok {
		t.Error("unfetchable ticker must be absent, not empty")
	}
}

func TestFetchGexProfilesWithoutSource(t *testing.T) {
	gateway := NewGateway(&fakeFlow{}, nil, nil, nil, time.Second, zap.NewNop())

	profiles := gateway.FetchGexProfiles(context.Background(), []string{"NVDA"})
	if len(profiles) != 0 {
		t.Errorf("expected empty map without a gex source, got %v", profiles)
	}
}
