package writer

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	appconfig "fundingflow/config"
	"fundingflow/internal/models"
)

func sampleReport() models.AggregateReport {
	return models.AggregateReport{
		"BTC/USDT": models.ExchangeReport{
			{
				Exchange:        "okx",
				Symbol:          "BTC/USDT",
				PerpetualSymbol: "BTC-USDT-SWAP",
				FundingRate:     models.Float64Ptr(0.0001),
				Timestamp:       models.Int64Ptr(1733890000000),
				Success:         true,
			},
			{
				Exchange:        "bitget",
				Symbol:          "BTC/USDT",
				PerpetualSymbol: "BTC/USDT:USDT",
				Success:         false,
				Error:           models.StringPtr("symbol not found"),
			},
		},
	}
}

func TestWriteLocal(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Writer.Output = t.TempDir()

	w, err := NewReportWriter(cfg)
	if err != nil {
		t.Fatalf("NewReportWriter failed: %v", err)
	}

	path, err := w.WriteLocal(sampleReport())
	if err != nil {
		t.Fatalf("WriteLocal failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var decoded models.AggregateReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}

	records, ok := decoded["BTC/USDT"]
	if !ok || len(records) != 2 {
		t.Fatalf("decoded report shape wrong: %v", decoded)
	}
	if records[0].FundingRate == nil || *records[0].FundingRate != 0.0001 {
		t.Errorf("funding_rate = %v", records[0].FundingRate)
	}
	if records[1].FundingRate != nil {
		t.Errorf("failed record funding_rate = %v, want null", records[1].FundingRate)
	}
	if records[1].Error == nil {
		t.Error("failed record must carry an error")
	}
}

func TestWriteLocalFieldNames(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Writer.Output = t.TempDir()

	w, err := NewReportWriter(cfg)
	if err != nil {
		t.Fatalf("NewReportWriter failed: %v", err)
	}

	path, err := w.WriteLocal(sampleReport())
	if err != nil {
		t.Fatalf("WriteLocal failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var generic map[string][]map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	rec := generic["BTC/USDT"][0]
	for _, key := range []string{"exchange", "symbol", "perpetual_symbol", "funding_rate", "funding_time", "next_funding_time", "timestamp", "success", "error"} {
		if _, ok := rec[key]; !ok {
			t.Errorf("record missing field %q", key)
		}
	}
}

func TestCreateParquet(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Writer.Formats.Parquet.Compression = "snappy"

	w, err := NewReportWriter(cfg)
	if err != nil {
		t.Fatalf("NewReportWriter failed: %v", err)
	}

	data, err := w.createParquet(sampleReport()["BTC/USDT"])
	if err != nil {
		t.Fatalf("createParquet failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty parquet output")
	}
	// Parquet files start and end with the PAR1 magic.
	if string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
		t.Error("output does not look like a parquet file")
	}
}

func TestGenerateS3KeyPartitions(t *testing.T) {
	cfg := &appconfig.Config{}
	w := &ReportWriter{cfg: cfg}

	key := w.generateS3Key("BTC/USDT")
	for _, part := range []string{"market=funding", "symbol=BTC_USDT", "date="} {
		if !strings.Contains(key, part) {
			t.Errorf("key %q missing partition %q", key, part)
		}
	}
}
