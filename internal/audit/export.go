package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"
)

// exportRow is the flat parquet schema for exported audit events.
type exportRow struct {
	ID          int64  `parquet:"id"`
	TimestampMs int64  `parquet:"timestamp_ms"`
	EventType   string `parquet:"event_type"`
	PIITypes    string `parquet:"pii_types"` // comma-joined
	Context     string `parquet:"context"`
	Source      string `parquet:"source"`
	Severity    string `parquet:"severity"`
	Metadata    string `parquet:"metadata"` // JSON object
}

// ExportParquet writes every event in [from, to] to a parquet file for
// offline analysis and returns the number of exported rows.
func (a *Auditor) ExportParquet(ctx context.Context, path string, from, to time.Time) (int, error) {
	events, err := a.store.Range(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to read events for export: %w", err)
	}

	rows := make([]exportRow, 0, len(events))
	for _, event := range events {
		types := make([]string, 0, len(event.PIITypes))
		for _, t := range event.PIITypes {
			types = append(types, string(t))
		}

		metadata := ""
		if len(event.Metadata) > 0 {
			if encoded, err := json.Marshal(event.Metadata); err == nil {
				metadata = string(encoded)
			}
		}

		rows = append(rows, exportRow{
			ID:          event.ID,
			TimestampMs: event.Timestamp.UnixMilli(),
			EventType:   string(event.Type),
			PIITypes:    strings.Join(types, ","),
			Context:     event.Context,
			Source:      event.Source,
			Severity:    string(event.Severity),
			Metadata:    metadata,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}

	writer := parquet.NewGenericWriter[exportRow](file)
	if _, err := writer.Write(rows); err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to write export rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to finalize export file: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("failed to close export file: %w", err)
	}

	a.logger.Info("Audit events exported",
		zap.String("path", path),
		zap.Int("rows", len(rows)))

	return len(rows), nil
}
