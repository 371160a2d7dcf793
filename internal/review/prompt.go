package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"cvreview-backend/internal/llm"
)

const systemPromptTemplate = `You are a CV review engine. Respond with valid JSON only. No markdown, no prose outside the JSON object.
Rules:
- Never invent employers, dates, degrees, or achievements that are not in the document.
- Never suggest edits to the candidate's name, email, phone, or linkedin fields.
- Every fieldPath must reference a field that already exists in the provided document, using dotted keys and bracketed indexes (e.g. "work[0]" or "education[1].description").
- Return at most %d fixes in "topFixes"%s.
- Response shape: {"overall":{"tier":"Needs Work"|"Fair"|"Strong"|"Excellent","score":0-100,"summary":string},"topFixes":[{"priority":int,"sectionId":string,"fieldPath":string,"issueType":"impact"|"clarity"|"ats"|"length","reason":string,"suggestedText":string,"title":string}],"bySection":{sectionId:{"strengths":[string],"suggestions":[]}}%s}`

const repairSystemPrompt = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."

// buildPrompt assembles the conversation for the first attempt. The CV data
// it embeds must already be redacted.
func buildPrompt(req Request, redactedCV map[string]any) []llm.Message {
	sectionRule := ""
	jobMatchShape := ""
	if req.Mode == ModeSection {
		sectionRule = fmt.Sprintf(", and exactly 2-3 fixes, all with sectionId %q", req.SectionID)
	}
	if req.Mode == ModeJobMatch {
		jobMatchShape = `,"jobMatch":{"score":0-100,"missingKeywords":[string],"matchedKeywords":[string],"roleFitNotes":[string]}`
	}
	system := fmt.Sprintf(systemPromptTemplate, maxTopFixes, sectionRule, jobMatchShape)

	var user strings.Builder
	fmt.Fprintf(&user, "Review mode: %s\n", req.Mode)
	if req.Mode == ModeSection {
		fmt.Fprintf(&user, "Target section: %s\n", req.SectionID)
	}
	if req.Mode == ModeJobMatch {
		fmt.Fprintf(&user, "Job description:\n%s\n", req.JobDescription)
	}
	cvJSON, err := json.Marshal(redactedCV)
	if err != nil {
		cvJSON = []byte("{}")
	}
	fmt.Fprintf(&user, "\nCV document (JSON):\n%s", cvJSON)

	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user.String()},
	}
}

// buildRepairPrompt extends the original conversation with the invalid
// output and the concrete validation errors, asking for corrected JSON.
func buildRepairPrompt(conversation []llm.Message, invalidOutput string, validationErrors []string) []llm.Message {
	var user strings.Builder
	user.WriteString("Your previous response was invalid:\n")
	for _, e := range validationErrors {
		user.WriteString("- ")
		user.WriteString(e)
		user.WriteString("\n")
	}
	fmt.Fprintf(&user, "\nYour previous response was:\n%s\n\nReturn the corrected JSON object only.", invalidOutput)

	out := make([]llm.Message, 0, len(conversation)+2)
	out = append(out, llm.Message{Role: "system", Content: repairSystemPrompt})
	out = append(out, conversation...)
	out = append(out, llm.Message{Role: "user", Content: user.String()})
	return out
}
