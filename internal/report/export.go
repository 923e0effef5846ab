package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"loginload/internal/runner"
)

// ExportCSV exports results to a JMeter-compatible CSV file.
// Schema: timeStamp,elapsed,label,responseCode,responseMessage,threadName,dataType,success,failureMessage,bytes,sentBytes,grpThreads,allThreads,URL,Latency,IdleTime,Connect
func ExportCSV(results []runner.ExperimentResult, label, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{
		"timeStamp", "elapsed", "label", "responseCode", "responseMessage",
		"threadName", "dataType", "success", "failureMessage", "bytes",
		"sentBytes", "grpThreads", "allThreads", "URL", "Latency", "IdleTime", "Connect",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		elapsed := strconv.FormatInt(res.ServiceTime.Milliseconds(), 10)
		record := []string{
			strconv.FormatInt(res.TimeStamp.UnixMilli(), 10),
			elapsed,
			label,
			strconv.Itoa(res.Status),
			http.StatusText(res.Status),
			fmt.Sprintf("VU-%s-%d", res.UserID, res.Iteration),
			"text",
			strconv.FormatBool(res.Success),
			res.Error,
			strconv.FormatInt(res.Bytes, 10),
			"0", // sent bytes are not tracked
			"1",
			"1",
			res.URL,
			elapsed,
			"0",
			"0", // connect time is part of the service time
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ExportJSON exports results to a JSON file.
func ExportJSON(results []runner.ExperimentResult, filename string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// ExportSummary writes <prefix>_summary.json.
func ExportSummary(s Summary, prefix string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(prefix+"_summary.json", data, 0644)
}

// WriteAll writes <prefix>.csv, <prefix>.json, <prefix>_summary.json and
// <prefix>_timeline.json.
func WriteAll(prefix string, results []runner.ExperimentResult, s Summary) error {
	if err := ExportCSV(results, s.Scenario, prefix+".csv"); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	if err := ExportJSON(results, prefix+".json"); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	if err := ExportSummary(s, prefix); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	if err := ExportTimeline(results, prefix); err != nil {
		return fmt.Errorf("export timeline: %w", err)
	}
	return nil
}
