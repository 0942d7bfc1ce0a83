package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/gradientgen/internal/server"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	base := strings.TrimSuffix(serverURL, "/")
	if len(args) == 0 {
		return listJobs(cmd.OutOrStdout(), base+"/api/v1/jobs")
	}
	jobID := args[0]
	return getJobStatus(cmd.OutOrStdout(), fmt.Sprintf("%s/api/v1/jobs/%s/status", base, jobID), jobID)
}

func listJobs(w io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", strings.TrimSpace(string(body)))
	}

	var jobs []server.Job
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return nil
	}

	fmt.Fprintf(w, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(w, "Job ID: %s\n", job.ID)
		fmt.Fprintf(w, "  State: %s\n", job.State)
		fmt.Fprintf(w, "  Size: %d, Seed: %d, Format: %s\n", job.Config.Size, job.Config.Seed, job.Config.Format)
		if job.Algorithm != "" {
			fmt.Fprintf(w, "  Algorithm: %s\n", job.Algorithm)
		}
		fmt.Fprintf(w, "  Progress: %d/%d rows\n", job.RowsDone, job.RowsTotal)
		fmt.Fprintln(w)
	}

	return nil
}

func getJobStatus(w io.Writer, url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", strings.TrimSpace(string(body)))
	}

	var status server.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Fprintf(w, "Job: %s\n", status.ID)
	fmt.Fprintf(w, "State: %s\n", status.State)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Size: %dx%d\n", status.Config.Size, status.Config.Size)
	fmt.Fprintf(w, "  Seed: %d\n", status.Config.Seed)
	fmt.Fprintf(w, "  Format: %s\n", status.Config.Format)
	if status.Config.Algorithm != "" {
		fmt.Fprintf(w, "  Forced algorithm: %s\n", status.Config.Algorithm)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Progress:")
	if status.Algorithm != "" {
		fmt.Fprintf(w, "  Algorithm: %s\n", status.Algorithm)
	}
	fmt.Fprintf(w, "  Rows: %d/%d (%.1f%%)\n", status.RowsDone, status.RowsTotal, status.Progress*100)
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(w, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.RecordID != "" {
		fmt.Fprintf(w, "  Stored as: %s\n", status.RecordID)
	}

	if status.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", status.Error)
	}

	return nil
}
