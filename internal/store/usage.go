package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UsageSnapshot is one recorded usage report for a profile.
type UsageSnapshot struct {
	TranNo     string
	UsedBytes  int64
	TotalBytes int64
	ReportedAt time.Time
}

// RecordUsage appends a usage snapshot.
func (s *Store) RecordUsage(ctx context.Context, snap *UsageSnapshot) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if snap == nil || snap.TranNo == "" {
		return errors.New("transaction number is required")
	}

	reportedAt := snap.ReportedAt
	if reportedAt.IsZero() {
		reportedAt = time.Now()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO usage_snapshots (tran_no, used_bytes, total_bytes, reported_at)
		VALUES (?, ?, ?, ?)`,
		snap.TranNo, snap.UsedBytes, snap.TotalBytes, reportedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// LatestUsage returns the most recent snapshot per requested profile.
// Profiles without snapshots are simply absent from the result.
func (s *Store) LatestUsage(ctx context.Context, tranNos []string) (map[string]*UsageSnapshot, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	out := make(map[string]*UsageSnapshot, len(tranNos))
	for _, tranNo := range tranNos {
		row := s.DB.QueryRowContext(ctx, `
			SELECT tran_no, used_bytes, total_bytes, reported_at
			FROM usage_snapshots WHERE tran_no = ?
			ORDER BY reported_at DESC, id DESC LIMIT 1`, tranNo)

		var (
			snap       UsageSnapshot
			reportedAt int64
		)
		err := row.Scan(&snap.TranNo, &snap.UsedBytes, &snap.TotalBytes, &reportedAt)
		if err != nil {
			continue
		}
		snap.ReportedAt = time.Unix(reportedAt, 0).UTC()
		out[tranNo] = &snap
	}
	return out, nil
}
