package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "fundingflow/config"
	"fundingflow/internal/models"
	"fundingflow/logger"
)

type fundingParquetRecord struct {
	Exchange        string   `parquet:"name=exchange, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol          string   `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	PerpetualSymbol string   `parquet:"name=perpetual_symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	FundingRate     *float64 `parquet:"name=funding_rate, type=DOUBLE, repetitiontype=OPTIONAL"`
	FundingTime     *string  `parquet:"name=funding_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NextFundingTime *string  `parquet:"name=next_funding_time, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Timestamp       *int64   `parquet:"name=timestamp, type=INT64, repetitiontype=OPTIONAL"`
	Success         bool     `parquet:"name=success, type=BOOLEAN"`
	Error           *string  `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buffer.Bytes() }

// ReportWriter persists aggregate funding reports: JSON snapshots on local
// disk, and optionally parquet batches in S3 partitioned per symbol and day.
type ReportWriter struct {
	cfg      *appconfig.Config
	s3Client *s3.Client
	log      *logger.Log
}

// NewReportWriter builds the writer. The S3 client is only constructed when
// storage.s3 is enabled; the local sink always works.
func NewReportWriter(cfg *appconfig.Config) (*ReportWriter, error) {
	w := &ReportWriter{cfg: cfg, log: logger.GetLogger()}

	if cfg.Storage.S3.Enabled {
		ctx := context.Background()
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Storage.S3.Region)}
		if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					cfg.Storage.S3.AccessKeyID,
					cfg.Storage.S3.SecretAccessKey,
					"",
				),
			))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		w.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Storage.S3.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
			}
			o.UsePathStyle = cfg.Storage.S3.PathStyle
		})
	}

	return w, nil
}

// WriteLocal serialises the report as indented JSON under the configured
// output directory and returns the file path.
func (w *ReportWriter) WriteLocal(report models.AggregateReport) (string, error) {
	outDir := w.cfg.Writer.Output
	if outDir == "" {
		outDir = "reports"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename := fmt.Sprintf("funding_rates_%s.json", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(outDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	logger.IncrementLocalReportWrite()
	w.log.WithComponent("report_writer").WithFields(logger.Fields{
		"path":    path,
		"symbols": len(report),
	}).Info("funding report written")
	return path, nil
}

// Upload converts each symbol's records to a parquet file and stores them in
// S3 under symbol and date partitions. Symbols are uploaded concurrently,
// bounded by writer.max_workers, and the first error observed is returned
// after all uploads settle. Uploading is a no-op when S3 or the parquet
// format is disabled.
func (w *ReportWriter) Upload(ctx context.Context, report models.AggregateReport) error {
	if w.s3Client == nil || !w.cfg.Writer.Formats.Parquet.Enabled {
		w.log.WithComponent("report_writer").Debug("parquet upload disabled, skipping")
		return nil
	}

	workers := w.cfg.Writer.MaxWorkers
	if workers <= 0 {
		workers = 2
	}

	type job struct {
		symbol  string
		records models.ExchangeReport
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := w.uploadSymbol(ctx, j.symbol, j.records); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for symbol, records := range report {
		jobs <- job{symbol: symbol, records: records}
	}
	close(jobs)
	wg.Wait()

	return firstErr
}

func (w *ReportWriter) uploadSymbol(ctx context.Context, symbol string, records models.ExchangeReport) error {
	if len(records) == 0 {
		return nil
	}

	data, err := w.createParquet(records)
	if err != nil {
		return fmt.Errorf("create parquet for %s: %w", symbol, err)
	}

	key := w.generateS3Key(symbol)
	if err := w.uploadToS3(ctx, key, data); err != nil {
		return err
	}

	logger.IncrementS3ReportWrite()
	w.log.WithComponent("report_writer").WithFields(logger.Fields{
		"s3_key":    key,
		"symbol":    symbol,
		"records":   len(records),
		"file_size": len(data),
	}).Info("funding batch uploaded")
	return nil
}

func (w *ReportWriter) createParquet(records models.ExchangeReport) ([]byte, error) {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, new(fundingParquetRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}

	switch strings.ToLower(w.cfg.Writer.Formats.Parquet.Compression) {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	for _, rec := range records {
		row := fundingParquetRecord{
			Exchange:        rec.Exchange,
			Symbol:          rec.Symbol,
			PerpetualSymbol: rec.PerpetualSymbol,
			FundingRate:     rec.FundingRate,
			FundingTime:     rec.FundingTime,
			NextFundingTime: rec.NextFundingTime,
			Timestamp:       rec.Timestamp,
			Success:         rec.Success,
			Error:           rec.Error,
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("write funding record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize funding parquet: %w", err)
	}
	return mem.Bytes(), nil
}

func (w *ReportWriter) generateS3Key(symbol string) string {
	now := time.Now().UTC()
	safeSymbol := strings.ToUpper(strings.ReplaceAll(symbol, "/", "_"))
	filename := fmt.Sprintf("%s_%s_%s_funding.parquet",
		safeSymbol,
		now.Format("20060102150405"),
		uuid.NewString(),
	)
	key := filepath.Join(
		"market=funding",
		fmt.Sprintf("symbol=%s", safeSymbol),
		fmt.Sprintf("date=%s", now.Format("2006-01-02")),
		filename,
	)
	return filepath.ToSlash(key)
}

func (w *ReportWriter) uploadToS3(ctx context.Context, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.cfg.Storage.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":        "parquet",
			"compression":         w.cfg.Writer.Formats.Parquet.Compression,
			"fundingflow-version": w.cfg.Fundingflow.Version,
		},
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := w.s3Client.PutObject(uploadCtx, input); err != nil {
		return fmt.Errorf("upload funding parquet: %w", err)
	}
	return nil
}
