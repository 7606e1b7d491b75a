package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var serverURL string

func main() {
	rootCmd := &cobra.Command{
		Use:     "diarize-cli",
		Short:   "Command line client for the speaker diarization service",
		Long:    "Submit recordings to a diarization server, poll job progress, and print transcripts with per-speaker statistics.",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url",
		envOr("DIARIZE_SERVER_URL", "http://localhost:8000"), "base URL of the diarization server")

	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newHealthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newSubmitCmd() *cobra.Command {
	var (
		wait     bool
		interval time.Duration
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit <audio-file>",
		Short: "Upload an audio file and optionally wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(serverURL)

			resp, err := client.Submit(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Job submitted: %s (status: %s)\n", resp.JobID, resp.Status)

			if !wait {
				return nil
			}

			status, err := client.WaitForCompletion(resp.JobID, interval, timeout)
			if err != nil {
				return err
			}
			printResult(status.Result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", true, "poll until the job completes")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "polling interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum time to wait for completion")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(serverURL)
			status, err := client.Status(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Job %s: %s (progress %.1f%%)\n", status.JobID, status.Status, status.Progress*100)
			if status.Error != "" {
				fmt.Printf("Error: %s\n", status.Error)
			}
			printResult(status.Result)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job record from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(serverURL)
			if err := client.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Job %s deleted\n", args[0])
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server and engine health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(serverURL)
			resp, err := client.Health()
			if err != nil {
				return err
			}
			fmt.Printf("Server status: %v\n", resp["status"])
			if engines, ok := resp["engines"].([]interface{}); ok {
				for _, e := range engines {
					engine, ok := e.(map[string]interface{})
					if !ok {
						continue
					}
					fmt.Printf("  %v: healthy=%v\n", engine["provider"], engine["is_healthy"])
				}
			}
			if active, ok := resp["active_jobs"]; ok {
				fmt.Printf("Active jobs: %v\n", active)
			}
			return nil
		},
	}
}

// printResult renders the transcript followed by a per-speaker summary,
// speakers ordered by label for stable output.
func printResult(result *JobResult) {
	if result == nil {
		return
	}

	fmt.Println("\n=== Transcript ===")
	fmt.Println(result.Transcript)

	fmt.Println("\n=== Speakers ===")
	labels := make([]string, 0, len(result.Speakers))
	for label := range result.Speakers {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		stats := result.Speakers[label]
		fmt.Printf("%s: %.2fs (%.1f%%), %d segments, %d words\n",
			label, stats.TotalDuration, stats.Percentage, stats.SegmentCount, stats.WordCount)
	}

	fmt.Printf("\nAudio duration: %.2fs, speakers: %d, processed in %.2fs\n",
		result.AudioDuration, result.TotalSpeakers, result.ProcessingTime)
}
