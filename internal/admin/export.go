package admin

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/showroom-admin/backoffice/internal/shared"
)

const (
	exportPageSize = 500
	// exportMaxRows caps a single export.
	exportMaxRows = 50000
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf     *bufio.Writer
	csv     *csv.Writer
	pending int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer}
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pending++
	if s.pending >= csvFlushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	s.pending = 0
	return s.buf.Flush()
}

// WriteCSV streams the list columns of every record matching q.
func WriteCSV(ctx context.Context, w io.Writer, v *View, q shared.ListQuery) error {
	fields := v.Policy.ListFields(v.Resource.Fields())
	stream := newCSVStreamer(w)
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.DisplayLabel()
	}
	if err := stream.writeRow(header); err != nil {
		return err
	}

	q.Limit = exportPageSize
	q.Offset = 0
	for q.Offset < exportMaxRows {
		records, total, err := v.Resource.List(ctx, q)
		if err != nil {
			return fmt.Errorf("export %s: %w", v.Endpoint, err)
		}
		for _, rec := range records {
			row := make([]string, len(fields))
			for i, f := range fields {
				row[i] = rec.DisplayValue(f.Name)
			}
			if err := stream.writeRow(row); err != nil {
				return err
			}
		}
		// Resources may cap pages below exportPageSize, so only an empty
		// page or the reported total ends the export.
		q.Offset += len(records)
		if len(records) == 0 || q.Offset >= total {
			break
		}
	}
	return stream.Flush()
}

func (a *Admin) export(v *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !v.Policy.CanExport {
			a.forbidden.ServeHTTP(w, r)
			return
		}
		q := a.listQuery(v, r.URL.Query(), 1)
		filename := fmt.Sprintf("%s_%s.csv", v.Endpoint, time.Now().UTC().Format("20060102_150405"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := WriteCSV(r.Context(), w, v, q); err != nil {
			a.logger.Error("admin export", slog.String("view", v.Endpoint), slog.Any("error", err))
		}
	}
}
