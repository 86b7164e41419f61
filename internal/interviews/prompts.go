package interviews

import (
	"fmt"
	"strings"
)

const (
	fallbackSummary         = "We'll run a general interview based on the role details you provided."
	fallbackOpeningQuestion = "To get us started, walk me through your background and what drew you to this role."
	fallbackClosingMessage  = "That wraps up our session. Thanks for your time; your report will be ready shortly."

	// Inputs shorter than this skip the summary call entirely.
	minSummarizableContext = 80
)

const summarySystemPrompt = `You are an interview coach preparing a mock interview.
Given a job context, respond with a JSON object:
{"summary": "...", "openingQuestion": "..."}
The summary is two sentences describing the role focus. The opening question
is the first interview question, specific to the role.`

const feedbackSystemPrompt = `You are a rigorous but supportive interviewer running a mock interview.
Given the conversation so far and the candidate's latest answer, respond with a JSON object:
{"feedback": "...", "score": 0-10, "nextQuestion": "...", "done": false}
Score the latest answer from 0 to 10. Set "done" to true and leave
"nextQuestion" empty when the interview should end, putting a closing
message in "feedback". End after roughly six questions or when the
candidate asks to stop.`

const reportSystemPrompt = `You are an interview coach writing a post-session report.
Given the full interview transcript with per-answer feedback and scores,
write a narrative report in plain text: overall impression, strengths,
areas to improve, and three concrete practice suggestions.`

func buildSummaryUserPrompt(jobContext string) string {
	return "Job context:\n" + jobContext
}

func buildFeedbackUserPrompt(s *Session, answer string) string {
	var b strings.Builder
	b.WriteString("Role summary: ")
	b.WriteString(s.Summary)
	b.WriteString("\n\nConversation so far:\n")
	for _, t := range s.Turns {
		if t.Error != "" {
			continue
		}
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", t.Seq, t.Question, t.Seq, t.Answer)
	}
	fmt.Fprintf(&b, "\nCurrent question: %s\nCandidate answer: %s\n", s.CurrentQuestion, answer)
	return b.String()
}

// BuildReportPrompt renders the transcript for the report worker.
func BuildReportPrompt(s *Session) (system, user string) {
	var b strings.Builder
	b.WriteString("Role summary: ")
	b.WriteString(s.Summary)
	b.WriteString("\n\nTranscript:\n")
	for _, t := range s.Turns {
		if t.Error != "" {
			continue
		}
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\nFeedback: %s (score %.1f)\n\n",
			t.Seq, t.Question, t.Seq, t.Answer, t.Feedback, t.Score)
	}
	return reportSystemPrompt, b.String()
}
