package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stackops/issueops/internal/report"
	"github.com/stackops/issueops/internal/tracker"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reconcile the canonical issue for a CI event",
	Long: `Read a structured event payload and create or refresh the canonical
status-tracking issue for it.

The payload file is YAML (JSON also parses). Field names per event kind match
the workflow outputs, e.g. for deployment failures:

  environment: dev
  deploymentType: full
  failurePoint: "Phase 1: Infrastructure setup"
  workflowRun: https://github.com/acme/platform/actions/runs/42
  commit: abc1234
  triggeredBy: octocat
  status:
    infrastructure: failure
    application: skipped

Examples:
  issueops report template-validation --payload event.yaml
  issueops report security-scan --payload scan.json
  issueops report deployment --payload deploy.yaml
  issueops report infrastructure --payload infra.yaml`,
}

var reportTemplateValidationCmd = &cobra.Command{
	Use:   "template-validation",
	Short: "Report a template validation failure",
	RunE: func(cmd *cobra.Command, args []string) error {
		var ev report.TemplateValidationEvent
		return runReport(cmd, &ev, func(ctx context.Context, r *report.Reporter) (tracker.Issue, error) {
			return r.TemplateValidationFailure(ctx, ev)
		})
	},
}

var reportSecurityScanCmd = &cobra.Command{
	Use:   "security-scan",
	Short: "Report security scan findings",
	RunE: func(cmd *cobra.Command, args []string) error {
		var ev report.SecurityScanEvent
		return runReport(cmd, &ev, func(ctx context.Context, r *report.Reporter) (tracker.Issue, error) {
			return r.SecurityScanFinding(ctx, ev)
		})
	},
}

var reportDeploymentCmd = &cobra.Command{
	Use:   "deployment",
	Short: "Report a deployment failure",
	RunE: func(cmd *cobra.Command, args []string) error {
		var ev report.DeploymentFailureEvent
		return runReport(cmd, &ev, func(ctx context.Context, r *report.Reporter) (tracker.Issue, error) {
			return r.DeploymentFailure(ctx, ev)
		})
	},
}

var reportInfrastructureCmd = &cobra.Command{
	Use:   "infrastructure",
	Short: "Report an infrastructure provisioning failure",
	RunE: func(cmd *cobra.Command, args []string) error {
		var ev report.InfrastructureFailureEvent
		return runReport(cmd, &ev, func(ctx context.Context, r *report.Reporter) (tracker.Issue, error) {
			return r.InfrastructureFailure(ctx, ev)
		})
	},
}

// runReport decodes the payload file into ev, builds the reporter, and runs
// the given reconciliation.
func runReport(cmd *cobra.Command, ev interface{}, reconcileFn func(context.Context, *report.Reporter) (tracker.Issue, error)) error {
	payloadPath, _ := cmd.Flags().GetString("payload")
	data, err := os.ReadFile(payloadPath)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	if err := yaml.Unmarshal(data, ev); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	reporter, err := report.NewReporter(engine)
	if err != nil {
		return err
	}

	issue, err := reconcileFn(context.Background(), reporter)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s issue #%d: %s\n", green("Reconciled"), issue.Number, issue.Title)
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{
		reportTemplateValidationCmd,
		reportSecurityScanCmd,
		reportDeploymentCmd,
		reportInfrastructureCmd,
	} {
		cmd.Flags().String("payload", "", "path to the event payload file (YAML or JSON)")
		_ = cmd.MarkFlagRequired("payload")
		reportCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(reportCmd)
}
