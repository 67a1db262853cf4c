package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/stackops/issueops/internal/reconcile"
	"github.com/stackops/issueops/internal/tracker"
)

// Issue titles and label sets for each event kind. Titles double as match
// keys, so changing one orphans the previous canonical issue.
const (
	templateValidationTitle = "🔴 Template Validation Failed"
	securityScanTitlePrefix = "🔒 Security Scan:"
	infraFailureTitle       = "🏗️ Infrastructure Provisioning Failed"
)

// Reporter builds issue drafts from events and reconciles them.
type Reporter struct {
	engine *reconcile.Engine
}

// NewReporter creates a Reporter on top of a reconciliation engine.
func NewReporter(engine *reconcile.Engine) (*Reporter, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	return &Reporter{engine: engine}, nil
}

// TemplateValidationFailure reconciles the canonical template-validation
// issue. The title is fixed; the body enumerates the failed stages.
func (r *Reporter) TemplateValidationFailure(ctx context.Context, ev TemplateValidationEvent) (tracker.Issue, error) {
	var b strings.Builder
	b.WriteString("Automated template validation failed.\n\n")
	fmt.Fprintf(&b, "**Templates affected:** %s\n", ev.TemplatesAffected)
	if ev.Filter != "" {
		fmt.Fprintf(&b, "**Filter:** `%s`\n", ev.Filter)
	}
	fmt.Fprintf(&b, "**Workflow run:** %s\n\n", ev.WorkflowRun)
	b.WriteString("### Failed Stages\n\n")
	for _, stage := range ev.FailedStages {
		fmt.Fprintf(&b, "- ❌ %s\n", stage)
	}

	draft := tracker.IssueDraft{
		Title:  templateValidationTitle,
		Body:   b.String(),
		Labels: []string{"template-validation", "automated"},
	}
	return r.engine.CreateOrUpdate(ctx, draft, reconcile.Options{AlwaysUpdate: true})
}

// SecurityScanFinding reconciles the canonical security-scan issue. The title
// embeds the scan ID, so matching uses a regex on the fixed title prefix plus
// the security labels rather than the exact title.
func (r *Reporter) SecurityScanFinding(ctx context.Context, ev SecurityScanEvent) (tracker.Issue, error) {
	var b strings.Builder
	b.WriteString("The scheduled security scan reported findings that need attention.\n\n")
	fmt.Fprintf(&b, "**Scan ID:** `%s`\n", ev.ScanID)
	fmt.Fprintf(&b, "**Critical:** %d\n", ev.CriticalCount)
	fmt.Fprintf(&b, "**High:** %d\n", ev.HighCount)
	fmt.Fprintf(&b, "**Total findings:** %d\n", ev.TotalFindings)
	fmt.Fprintf(&b, "**Commit:** `%s`\n", ev.Commit)
	fmt.Fprintf(&b, "**Workflow run:** %s\n", ev.WorkflowRun)

	labels := []string{"security", "critical", "automated"}
	draft := tracker.IssueDraft{
		Title:  fmt.Sprintf("%s critical findings (%s)", securityScanTitlePrefix, ev.ScanID),
		Body:   b.String(),
		Labels: labels,
	}
	match := tracker.SearchCriteria{
		TitlePattern: "^" + securityScanTitlePrefix,
		TitleIsRegex: true,
		Labels:       []string{"security", "critical"},
		State:        tracker.IssueStateOpen,
	}
	return r.engine.CreateOrUpdate(ctx, draft, reconcile.Options{Match: &match, AlwaysUpdate: true})
}

// deploymentVariant classifies a deployment failure by where it failed.
type deploymentVariant int

const (
	deploymentVariantGeneral deploymentVariant = iota
	deploymentVariantInfrastructure
	deploymentVariantApplication
)

// classifyFailurePoint buckets the free-text failure point by substring.
// "Infrastructure" is tested before "Coder"; a failure point containing both
// lands in the infrastructure bucket.
func classifyFailurePoint(failurePoint string) deploymentVariant {
	switch {
	case strings.Contains(failurePoint, "Infrastructure") || strings.Contains(failurePoint, "Phase 1"):
		return deploymentVariantInfrastructure
	case strings.Contains(failurePoint, "Coder") || strings.Contains(failurePoint, "Phase 2"):
		return deploymentVariantApplication
	default:
		return deploymentVariantGeneral
	}
}

// DeploymentFailure reconciles the canonical deployment-failure issue for the
// event's environment. The failure point selects one of three variants with
// distinct titles, labels, and recovery guidance; all variants share the
// phase-status rendering and one match pattern per environment.
func (r *Reporter) DeploymentFailure(ctx context.Context, ev DeploymentFailureEvent) (tracker.Issue, error) {
	var (
		title    string
		labels   []string
		guidance string
	)
	switch classifyFailurePoint(ev.FailurePoint) {
	case deploymentVariantInfrastructure:
		title = fmt.Sprintf("🚨 Infrastructure Deployment Failure: %s", ev.Environment)
		labels = []string{"deployment-failure", "infrastructure"}
		guidance = "### Recovery\n\n" +
			"1. Inspect the Terraform plan and apply logs in the workflow run.\n" +
			"2. Check cloud provider quotas and service health for the target region.\n" +
			"3. Re-run the deployment once the underlying resource issue is resolved.\n"
	case deploymentVariantApplication:
		title = fmt.Sprintf("🚨 Coder Deployment Failure: %s", ev.Environment)
		labels = []string{"deployment-failure", "application"}
		guidance = "### Recovery\n\n" +
			"1. Check the Coder server logs and Helm release status.\n" +
			"2. Verify the control plane is reachable and healthy.\n" +
			"3. Roll back to the previous release if the new one cannot start.\n"
	default:
		title = fmt.Sprintf("🚨 Deployment Failure: %s", ev.Environment)
		labels = []string{"deployment-failure"}
		guidance = "### Recovery\n\n" +
			"1. Review the failed step in the workflow run logs.\n" +
			"2. Re-run the deployment after addressing the reported error.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deployment to **%s** failed.\n\n", ev.Environment)
	fmt.Fprintf(&b, "**Deployment type:** %s\n", ev.DeploymentType)
	fmt.Fprintf(&b, "**Failure point:** %s\n", ev.FailurePoint)
	if ev.Template != "" {
		fmt.Fprintf(&b, "**Template:** `%s`\n", ev.Template)
	}
	fmt.Fprintf(&b, "**Triggered by:** @%s\n", ev.TriggeredBy)
	fmt.Fprintf(&b, "**Commit:** `%s`\n", ev.Commit)
	fmt.Fprintf(&b, "**Workflow run:** %s\n\n", ev.WorkflowRun)
	if status := renderStatus(ev.Status); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}
	b.WriteString(guidance)

	// The environment is interpolated into the pattern as-is. An environment
	// name containing regex metacharacters changes what the pattern matches.
	match := tracker.SearchCriteria{
		TitlePattern: fmt.Sprintf(".*Deployment Failure: %s.*", ev.Environment),
		TitleIsRegex: true,
		Labels:       []string{"deployment-failure"},
		State:        tracker.IssueStateOpen,
	}
	draft := tracker.IssueDraft{Title: title, Body: b.String(), Labels: labels}
	return r.engine.CreateOrUpdate(ctx, draft, reconcile.Options{Match: &match, AlwaysUpdate: true})
}

// InfrastructureFailure reconciles the canonical infrastructure-failure
// issue. Title and labels are fixed; the body optionally carries a verbatim
// error block.
func (r *Reporter) InfrastructureFailure(ctx context.Context, ev InfrastructureFailureEvent) (tracker.Issue, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Infrastructure provisioning for **%s** failed.\n\n", ev.Environment)
	fmt.Fprintf(&b, "**Triggered by:** @%s\n", ev.TriggeredBy)
	fmt.Fprintf(&b, "**Commit:** `%s`\n", ev.Commit)
	fmt.Fprintf(&b, "**Workflow run:** %s\n", ev.WorkflowRun)
	if ev.ErrorDetails != "" {
		fmt.Fprintf(&b, "\n### Error Details\n\n```\n%s\n```\n", ev.ErrorDetails)
	}

	draft := tracker.IssueDraft{
		Title:  infraFailureTitle,
		Body:   b.String(),
		Labels: []string{"infrastructure", "failure", "automated"},
	}
	return r.engine.CreateOrUpdate(ctx, draft, reconcile.Options{AlwaysUpdate: true})
}
