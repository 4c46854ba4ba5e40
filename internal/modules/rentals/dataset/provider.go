package dataset

import (
	"context"
	"fmt"

	"bikeshare-dashboard/internal/modules/rentals/types"
)

type Provider interface {
	Load(ctx context.Context) (*Dataset, error)
}

// RecordSource is implemented by the SQLite repository.
type RecordSource interface {
	GetDailyRecords(ctx context.Context) ([]types.DailyRecord, error)
	GetHourlyRecords(ctx context.Context) ([]types.HourlyRecord, error)
}

type staticProvider struct {
	ds *Dataset
}

// NewStaticProvider serves a dataset loaded once at startup.
func NewStaticProvider(ds *Dataset) Provider {
	return &staticProvider{ds: ds}
}

func (p *staticProvider) Load(ctx context.Context) (*Dataset, error) {
	return p.ds, nil
}

type recordProvider struct {
	src RecordSource
}

// NewRecordProvider re-reads src on every Load so that ingested rows show up
// on the next request.
func NewRecordProvider(src RecordSource) Provider {
	return &recordProvider{src: src}
}

func (p *recordProvider) Load(ctx context.Context) (*Dataset, error) {
	daily, err := p.src.GetDailyRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load daily records: %w", err)
	}
	hourly, err := p.src.GetHourlyRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hourly records: %w", err)
	}
	return FromRecords(daily, hourly), nil
}
