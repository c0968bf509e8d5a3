package agents

import (
	"bytes"
	"fmt"
	"strings"

	"scriptsmith/internal/genre"
	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/script"
)

const (
	previousScriptStart = "--- PREVIOUS SCRIPT START ---"
	previousScriptEnd   = "--- PREVIOUS SCRIPT END ---"
)

const writerGuidelines = `Here are the general guidelines for writing a high-quality script (apply these rigorously):
1. Hook: Start with a surprising fact, question, or statement to grab attention in the first 3 seconds. Make it extremely compelling.
2. Value: Deliver unique, actionable, and surprising insights. Answer the viewer's implicit question: "What's in it for me?".
3. Retention: Use pattern interrupts (tone shifts, questions) frequently (every ~15-30 seconds for short, ~30-60 seconds for long) to maintain curiosity. Keep the energy high.
4. CTA: End with a compelling and natural call-to-action that encourages specific engagement (like, comment with X, subscribe for Y). Avoid generic CTAs.`

const spokenWordsOnly = `IMPORTANT INSTRUCTIONS FOR SCRIPT CONTENT:
- Focus only on the spoken words (dialogue, narration).
- Do NOT include visual cues, camera directions, sound effect descriptions, scene descriptions, or parenthetical tone instructions (no "[Visual: ...]", "[Sound: ...]", "(Energetic tone)").
- If there are distinct speakers, you can denote them (e.g. "NARRATOR:", "HOST:", "INTERVIEWEE:").
- Ensure the output is clean, containing only the text that would be spoken.`

// writerPrompt renders the draft or revision prompt for d.
func writerPrompt(d orchestrator.Draft, minScore float64) string {
	var buf bytes.Buffer
	revising := d.PriorArtifact != ""
	if revising {
		buf.WriteString("You are revising a previous script based on feedback.\n")
		if d.Critique != "" {
			buf.WriteString("Here is the summarized feedback highlighting the key issues and suggestions:\n")
			buf.WriteString(d.Critique)
			buf.WriteString("\n\n")
		}
		buf.WriteString("Here is the previous script attempt that needs improvement:\n")
		buf.WriteString(previousScriptStart + "\n")
		buf.WriteString(d.PriorArtifact)
		buf.WriteString("\n" + previousScriptEnd + "\n\n")
		fmt.Fprintf(&buf, "Your task is to rewrite the script, strictly addressing the feedback points while adhering to the original guidelines, the target score (%s/10), and the provided genre pattern (if any). Focus on fixing the identified weaknesses. Retain the title, duration, and core data/topic.\n", formatScore(minScore))
	} else {
		fmt.Fprintf(&buf, "You are a YouTube scriptwriter. Your task is to create a new, highly engaging script from scratch that scores at least %s/10 on the validator's evaluation. Adhere strictly to the provided genre pattern if one is given.\n", formatScore(minScore))
	}

	buf.WriteString("\n" + writerGuidelines + "\n\n")
	fmt.Fprintf(&buf, "Title: %s\n", d.Topic)
	fmt.Fprintf(&buf, "Duration: %s\n", d.Duration.Describe())
	if data := strings.TrimSpace(d.Context); data != "" {
		fmt.Fprintf(&buf, "Core Data/Topic Information: %s\n", data)
	}
	if style := strings.TrimSpace(d.StyleHint); style != "" {
		fmt.Fprintf(&buf, "\nIMPORTANT GENRE PATTERN AND REFERENCE: You MUST observe the analysis and patterns provided for this genre, and only take it as reference:\n---\n%s\n---\n", style)
	}
	buf.WriteString("\n" + spokenWordsOnly + "\n\n")
	if revising {
		buf.WriteString("Generate the script now. Focus on the revision based on the feedback and genre pattern. Ensure the script format is clear.")
	} else {
		buf.WriteString("Generate the script now. Create the initial version adhering to the genre pattern. Ensure the script format is clear.")
	}
	return buf.String()
}

func validatorPrompt(artifact string, duration script.Duration) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `You are the harshest YouTube script critic who absolutely hates boring content. Your job is to strictly evaluate scripts and maintain the highest standards.

Evaluate this %[1]s-form script on these critical parameters:
1. Hook Impact (0-2.5 points)
   - Does it grab attention in the first 3 seconds?
   - Does it create immediate curiosity?
   - Would it stop someone from scrolling?
2. Value Delivery (0-2.5 points)
   - Does it deliver actionable insights?
   - Is the information unique or surprising?
   - Will viewers learn something new?
3. Retention Elements (0-2.5 points)
   - Are there effective pattern interrupts?
   - Does it maintain curiosity throughout?
   - Is pacing optimal for the %[1]s format?
4. Call-to-Action Power (0-2.5 points)
   - Is the CTA compelling and natural?
   - Does it encourage engagement?
   - Will it drive actual actions?

FORMAT YOUR RESPONSE EXACTLY LIKE THIS (no extra text before or after):
SCORE_HOOK: [0-2.5]
SCORE_VALUE: [0-2.5]
SCORE_RETENTION: [0-2.5]
SCORE_CTA: [0-2.5]
TOTAL: [0-10]
VERDICT: [one sentence - why this score]

Script to evaluate:
`, duration)
	buf.WriteString(artifact)
	return buf.String()
}

func summarizerPrompt(rawEvaluation string) string {
	var buf bytes.Buffer
	buf.WriteString("You are a feedback summarizer. Extract the absolute key critical points from the feedback and provide concise, actionable suggestions for improvement based only on the provided feedback text. Be direct and focus on what must change.\n\n")
	buf.WriteString("Feedback to summarize:\n")
	buf.WriteString(rawEvaluation)
	buf.WriteString("\n\nFormat your response EXACTLY like this:\n")
	buf.WriteString("- Key Issues: [bulleted list of 1-3 core problems mentioned in the feedback]\n")
	buf.WriteString("- Actionable Suggestions: [bulleted list of 1-3 specific actions to take based directly on the Key Issues]")
	return buf.String()
}

func classifierPrompt(title string) string {
	var buf bytes.Buffer
	buf.WriteString("You are a highly accurate content classifier. Determine the single best genre for the following video title from the predefined list below.\n\n")
	buf.WriteString("Predefined Genres:\n")
	for _, g := range genre.Known() {
		fmt.Fprintf(&buf, "- %s\n", g)
	}
	fmt.Fprintf(&buf, "\nVideo Title: %q\n\n", title)
	buf.WriteString("Instructions:\n")
	buf.WriteString("1. Analyze the title carefully.\n")
	buf.WriteString("2. Choose the one genre from the list that best fits the title.\n")
	buf.WriteString("3. If the title clearly fits one of the genres, output only the genre name exactly as it appears in the list.\n")
	fmt.Fprintf(&buf, "4. If the title does not clearly fit any genre, output the exact phrase: %q\n", genre.NotFound)
	buf.WriteString("5. Do NOT add explanations, introductions, or extra text.")
	return buf.String()
}

func formatScore(s float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", s), "0"), ".")
}
