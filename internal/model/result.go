package model

import "time"

// VerdictSource identifies which verification layers produced a verdict
type VerdictSource string

const (
	VerdictRuleBased VerdictSource = "rule_based"
	VerdictSemantic  VerdictSource = "semantic"
	VerdictCombined  VerdictSource = "combined"
)

// VerificationResult is the verdict for one verification pass. Immutable
// once produced.
type VerificationResult struct {
	HasIssue   bool          `json:"has_issue"`
	Confidence float64       `json:"confidence"` // Always in [0,1]
	Issues     []string      `json:"issues,omitempty"`
	Source     VerdictSource `json:"verdict_source"`
}

// CorrectionRecord captures one correction round. Appended to the history,
// never mutated afterwards.
type CorrectionRecord struct {
	Round            int      `json:"round"` // 1-based
	Issues           []string `json:"issues"`
	AnswerBefore     string   `json:"answer_before_correction"`
	CorrectionFailed bool     `json:"correction_failed,omitempty"`
}

// TraceEntry is one structured entry in a pipeline run's trace log.
type TraceEntry struct {
	Time    time.Time `json:"time"`
	State   string    `json:"state"`
	Message string    `json:"message"`
}

// PipelineResult is the terminal artifact of one pipeline invocation.
// Self-contained: the caller owns it after return and no component keeps a
// reference into it.
type PipelineResult struct {
	Query              Query               `json:"query"`
	FinalAnswer        string              `json:"final_answer"`
	InitialAnswer      string              `json:"initial_answer"`
	Evidence           []EvidenceChunk     `json:"evidence_used"`
	Corrections        []CorrectionRecord  `json:"correction_history"`
	HasUnresolvedIssue bool                `json:"has_unresolved_issue"`
	LastVerdict        *VerificationResult `json:"last_verdict,omitempty"`
	Trace              []TraceEntry        `json:"trace_log"`
}
