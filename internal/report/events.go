// Package report turns structured CI automation events into tracker issue
// drafts and reconciles them. Each event kind is a distinct payload type so
// the formatters are exhaustively type-checked rather than digging through a
// generic map.
//
// Every formatter reconciles with AlwaysUpdate set: each automation run
// unconditionally refreshes the canonical issue's content.
package report

// TemplateValidationEvent reports a workspace-template validation failure.
type TemplateValidationEvent struct {
	// WorkflowRun is the URL of the run that detected the failure.
	WorkflowRun string `yaml:"workflowRun"`

	// TemplatesAffected describes which templates the run validated.
	TemplatesAffected string `yaml:"templatesAffected"`

	// Filter is the template filter the run was invoked with, if any.
	Filter string `yaml:"filter"`

	// FailedStages lists the validation stages that failed.
	FailedStages []string `yaml:"failedStages"`
}

// SecurityScanEvent reports findings from a security scan.
type SecurityScanEvent struct {
	ScanID        string `yaml:"scanId"`
	CriticalCount int    `yaml:"criticalCount"`
	HighCount     int    `yaml:"highCount"`
	TotalFindings int    `yaml:"totalFindings"`
	WorkflowRun   string `yaml:"workflowRun"`
	Commit        string `yaml:"commit"`
}

// DeploymentFailureEvent reports a failed deployment run.
type DeploymentFailureEvent struct {
	Environment    string `yaml:"environment"`
	DeploymentType string `yaml:"deploymentType"`

	// FailurePoint is free text describing where the deployment failed. The
	// formatter classifies it by substring (see classifyFailurePoint).
	FailurePoint string `yaml:"failurePoint"`

	WorkflowRun string `yaml:"workflowRun"`
	Commit      string `yaml:"commit"`
	TriggeredBy string `yaml:"triggeredBy"`

	// Status maps deployment phase names to their results
	// ("success", "failure", "skipped").
	Status map[string]string `yaml:"status"`

	// Template is the template being deployed, when applicable.
	Template string `yaml:"template"`
}

// InfrastructureFailureEvent reports a failure while provisioning
// infrastructure outside of a deployment run.
type InfrastructureFailureEvent struct {
	Environment  string `yaml:"environment"`
	WorkflowRun  string `yaml:"workflowRun"`
	Commit       string `yaml:"commit"`
	TriggeredBy  string `yaml:"triggeredBy"`
	ErrorDetails string `yaml:"errorDetails"`
}
