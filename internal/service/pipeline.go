package service

import "time"

// Step names, in execution order.
const (
	stepLoadTicket           = "load_ticket"
	stepCreateSuggestion     = "create_suggestion"
	stepSubmitClassification = "submit_classification"
	stepWaitForCompletion    = "wait_for_completion"
	stepUpdateSuggestion     = "update_suggestion"
	stepDetermineAction      = "determine_next_action"
	stepExecuteAction        = "execute_action"
	stepRecordAudit          = "record_audit_trail"
)

// StepRecord captures one pipeline step's timing and outcome.
type StepRecord struct {
	Name        string    `json:"name"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// PipelineResult summarizes a single processing run. It is transient; the
// durable record of the run is the suggestion and its audit trail.
type PipelineResult struct {
	TicketID     string        `json:"ticket_id"`
	TraceID      string        `json:"trace_id"`
	Steps        []StepRecord  `json:"steps"`
	Action       *Action       `json:"action,omitempty"`
	ActionResult *ActionResult `json:"action_result,omitempty"`
	ElapsedMS    int64         `json:"elapsed_ms"`
	Success      bool          `json:"success"`
}

// runStep records the step even when fn fails, so a failed run still shows
// every step that executed before the failure.
func (p *PipelineResult) runStep(name string, fn func() error) error {
	step := StepRecord{Name: name, StartedAt: time.Now()}
	err := fn()
	step.CompletedAt = time.Now()
	step.Success = err == nil
	if err != nil {
		step.Error = err.Error()
	}
	p.Steps = append(p.Steps, step)
	return err
}
