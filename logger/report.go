package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type exchangeStat struct {
	fetches  int64
	failures int64
}

var (
	warnsTotal    int64
	errorsTotal   int64
	fetchesTotal  int64
	failuresTotal int64
	reportsLocal  int64
	reportsS3     int64
	exchanges     sync.Map // map[string]*exchangeStat
)

func recordWarn(string) {
	atomic.AddInt64(&warnsTotal, 1)
}

func recordError(string) {
	atomic.AddInt64(&errorsTotal, 1)
}

// RecordFetch counts one funding-rate fetch attempt against an exchange.
func RecordFetch(exchange string, failed bool) {
	atomic.AddInt64(&fetchesTotal, 1)
	if failed {
		atomic.AddInt64(&failuresTotal, 1)
	}
	v, _ := exchanges.LoadOrStore(exchange, &exchangeStat{})
	es := v.(*exchangeStat)
	atomic.AddInt64(&es.fetches, 1)
	if failed {
		atomic.AddInt64(&es.failures, 1)
	}
}

// IncrementLocalReportWrite counts a report persisted to the local sink.
func IncrementLocalReportWrite() {
	atomic.AddInt64(&reportsLocal, 1)
}

// IncrementS3ReportWrite counts a report batch uploaded to S3.
func IncrementS3ReportWrite() {
	atomic.AddInt64(&reportsS3, 1)
}

// StartReport begins periodic logging of system and fetch statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	netStats, _ := gnet.IOCounters(false)

	exchangeData := map[string]map[string]int64{}
	exchanges.Range(func(k, v any) bool {
		name := k.(string)
		es := v.(*exchangeStat)
		exchangeData[name] = map[string]int64{
			"fetches":  atomic.LoadInt64(&es.fetches),
			"failures": atomic.LoadInt64(&es.failures),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	bytesSent := uint64(0)
	bytesRecv := uint64(0)
	if len(netStats) > 0 {
		bytesSent = netStats[0].BytesSent
		bytesRecv = netStats[0].BytesRecv
	}

	fields := Fields{
		"warns":          atomic.LoadInt64(&warnsTotal),
		"errors":         atomic.LoadInt64(&errorsTotal),
		"fetches":        atomic.LoadInt64(&fetchesTotal),
		"fetch_failures": atomic.LoadInt64(&failuresTotal),
		"reports_local":  atomic.LoadInt64(&reportsLocal),
		"reports_s3":     atomic.LoadInt64(&reportsS3),
		"goroutines":     runtime.NumGoroutine(),
		"cpu_percent":    cpuPct,
		"memory_mb":      int64(memStats.Used) / 1024 / 1024,
		"disk_mb":        int64(diskStats.Used) / 1024 / 1024,
		"exchanges":      exchangeData,
		"net_bytes_sent": int64(bytesSent),
		"net_bytes_recv": int64(bytesRecv),
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("Warns"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&warnsTotal)))},
		cwtypes.MetricDatum{MetricName: aws.String("Errors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&errorsTotal)))},
		cwtypes.MetricDatum{MetricName: aws.String("Fetches"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&fetchesTotal)))},
		cwtypes.MetricDatum{MetricName: aws.String("FetchFailures"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&failuresTotal)))},
		cwtypes.MetricDatum{MetricName: aws.String("ReportsLocal"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&reportsLocal)))},
		cwtypes.MetricDatum{MetricName: aws.String("ReportsS3"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&reportsS3)))},
		cwtypes.MetricDatum{MetricName: aws.String("NetBytesSent"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesSent))},
		cwtypes.MetricDatum{MetricName: aws.String("NetBytesRecv"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesRecv))},
	)

	for name, stats := range exchangeData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("ExchangeFetches"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Exchange"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["fetches"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("ExchangeFailures"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Exchange"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["failures"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
