package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/webclaw-cli/internal/output"
)

var (
	cronIncludeDisabled bool
	cronPatch           string
	cronPatchFile       string
)

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Manage the gateway's scheduled jobs",
	Long: `List, run, and update the gateway's cron jobs.

Examples:
  webclaw cron list --all
  webclaw cron runs <job-id>
  webclaw cron run <job-id>
  webclaw cron update <job-id> --patch '{"enabled":false}'`,
}

var cronListCmd = &cobra.Command{
	Use:         "list",
	Aliases:     []string{"ls"},
	Short:       "List cron jobs",
	Args:        cobra.NoArgs,
	Annotations: gatewayAnnotation,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := GetClient().CronJobs(cmd.Context(), cronIncludeDisabled)
		if err != nil {
			return fmt.Errorf("failed to list cron jobs: %w", err)
		}
		if structuredOutputRequested() {
			return printStructured(jobs)
		}
		if len(jobs) == 0 {
			printStatus("No cron jobs\n")
			return nil
		}

		tab := output.Table{Headers: []string{"ID", "LABEL", "SCHEDULE", "ENABLED", "NEXT RUN"}}
		for _, job := range jobs {
			tab.Rows = append(tab.Rows, []string{
				job.ID, job.Label, job.Schedule, fmt.Sprintf("%t", job.Enabled), job.NextRun,
			})
		}
		return printTable(tab)
	},
}

var cronRunsCmd = &cobra.Command{
	Use:         "runs <job-id>",
	Short:       "List past runs of a job",
	Args:        cobra.ExactArgs(1),
	Annotations: gatewayAnnotation,
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := GetClient().CronRuns(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 && !structuredOutputRequested() {
			printStatus("No runs for %s\n", args[0])
			return nil
		}
		return printStructured(runs)
	},
}

var cronRunCmd = &cobra.Command{
	Use:         "run <job-id>",
	Short:       "Run a job now",
	Args:        cobra.ExactArgs(1),
	Annotations: gatewayAnnotation,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := GetClient().RunCronJob(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to run job: %w", err)
		}
		if structuredOutputRequested() {
			return printStructured(result)
		}
		printStatus("Started %s\n", args[0])
		return nil
	},
}

var cronUpdateCmd = &cobra.Command{
	Use:   "update <job-id>",
	Short: "Apply a partial update to a job",
	Long: `Apply a JSON object patch to a job.

The patch comes from --patch, --patch-file (use - for stdin), or piped
stdin, and must be a JSON object.`,
	Args:        cobra.ExactArgs(1),
	Annotations: gatewayAnnotation,
	RunE:        runCronUpdate,
}

func runCronUpdate(cmd *cobra.Command, args []string) error {
	raw := strings.TrimSpace(cronPatch)
	if raw == "" {
		source := cronPatchFile
		stdin := stdinFromContext(cmd.Context())
		if strings.TrimSpace(source) == "" && inputHasData(stdin) {
			source = "-"
		}
		if strings.TrimSpace(source) != "" {
			text, err := readInputSource(source, stdin)
			if err != nil {
				return err
			}
			raw = text
		}
	}
	if raw == "" {
		return fmt.Errorf("provide a patch with --patch, --patch-file, or stdin")
	}

	var patch map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		return fmt.Errorf("invalid patch JSON: %w", err)
	}
	if patch == nil {
		return fmt.Errorf("patch must be a JSON object")
	}

	job, err := GetClient().UpdateCronJob(cmd.Context(), args[0], patch)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if structuredOutputRequested() || job == nil {
		if job == nil {
			return printStructured(map[string]string{"status": "updated", "id": args[0]})
		}
		return printStructured(job)
	}
	printStatus("Updated %s (enabled: %t)\n", job.ID, job.Enabled)
	return nil
}

func init() {
	cronListCmd.Flags().BoolVar(&cronIncludeDisabled, "all", false, "Include disabled jobs")
	cronUpdateCmd.Flags().StringVar(&cronPatch, "patch", "", "JSON object patch")
	cronUpdateCmd.Flags().StringVar(&cronPatchFile, "patch-file", "", "File with the JSON patch (use - for stdin)")

	cronCmd.AddCommand(cronListCmd)
	cronCmd.AddCommand(cronRunsCmd)
	cronCmd.AddCommand(cronRunCmd)
	cronCmd.AddCommand(cronUpdateCmd)

	rootCmd.AddCommand(cronCmd)
}
