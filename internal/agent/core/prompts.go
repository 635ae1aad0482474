package core

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/webscout/internal/capability"
	"github.com/mohammad-safakhou/webscout/tools/webfetch/models"
)

// buildPlanningPrompt asks the oracle to choose between searching the web and
// answering directly, biased toward the registered specialized search formats.
func buildPlanningPrompt(query string, cards []capability.ToolCard, fallbackURL string) string {
	sites := make([]string, 0, len(cards))
	var formats strings.Builder
	for _, card := range cards {
		sites = append(sites, card.Site)
		// extraction-only capabilities (no search format) are still listed
		// as sites so direct URLs get prioritized
		if card.SearchURL != "" {
			formats.WriteString(fmt.Sprintf("- %s: %s\n", card.Site, card.SearchURL))
		}
	}

	return strings.TrimSpace(fmt.Sprintf(`User Query: "%s"
Decide if you need to SEARCH the web or if you can ANSWER directly.

INTERNAL CAPABILITIES:
I have specialized extraction tools for these sites: [%s].
If the query matches any of these, prioritize a DIRECT URL or specialized search for that site.

SPECIALIZED SEARCH FORMATS:
%s
Default Search Engine Fallback: %s

Rules:
1. If the user asks for "weather", "latest news", "specs", "docs", "repo", or specific real-time info -> MUST SEARCH (set action="search").
2. Prefer a specialized tool URL from the formats above if it matches the user's domain.
3. Clean the [clean_term] yourself - remove fillers like "latest", "find", "search for".
4. If you aren't sure, use the Default Search Engine Fallback.
5. If the user asks "hi", "help", "write code", "explain concept" (general knowledge) -> ANSWER DIRECTLY (set action="answer").

Return JSON:
{
  "action": "search" | "answer",
  "url": "destination url (required if action=search)",
  "answer": "your direct response (required if action=answer)",
  "reasoning": "why did you choose this tool/URL?"
}`, strings.TrimSpace(query), strings.Join(sites, ", "), formats.String(), fallbackURL))
}

// buildDecisionPrompt asks the oracle whether the current page is enough to
// answer, or which refinement action to take next.
func buildDecisionPrompt(query string, page *models.PageResult, assessment QualityAssessment) string {
	var interactables strings.Builder
	if len(page.Interactables) > 0 {
		interactables.WriteString("\nINTERACTABLE ELEMENTS (Buttons/Inputs):\n")
		for i, el := range page.Interactables {
			interactables.WriteString(fmt.Sprintf("%d. [%s] %q (Selector: %s)\n", i+1, el.Type, el.Text, el.Selector))
		}
	}

	var topResults strings.Builder
	for i, r := range page.Results {
		if i >= 5 {
			break
		}
		topResults.WriteString(fmt.Sprintf("- %q (%d/100) -> %s\n", r.Title, r.Score, r.URL))
	}

	blockedWarning := ""
	if page.IsBlocked {
		blockedWarning = `WARNING: Web searching is currently BLOCKED by a CAPTCHA. If the user provided a direct URL in their query, use "deep_dive" to visit it immediately.` + "\n"
	}

	snippet := page.Text
	if len(snippet) > 800 {
		snippet = snippet[:800]
	}
	if snippet == "" {
		snippet = "No text content"
	}

	return fmt.Sprintf(`User Query: "%s"
Review the Current Page Content below.
Do we have enough information to provide a COMPREHENSIVE and HIGH-ACCURACY answer?

CRITICAL ACCURACY CHECK:
1. Is the data TRUNCATED? (Look for "...", "Read More", or cut-off sentences).
2. Are specific technical metrics missing? (e.g., likes, comments).
3. Is this just a landing page or search result?

SEARCH QUALITY: %s
%s%s
TOP RESULTS:
%s
RAW CONTENT SNIPPET:
%s

DECISION RULES:
1. "action": "answer" - ONLY if data is perfect and complete. NO TRUNCATION ALLOWED.
2. "action": "click" - If content is cut off and an expander exists.
   - REQUIREMENT: Use a valid CSS SELECTOR (e.g., "#expand", "button.more"). DO NOT USE PLAIN TEXT.
3. "action": "hover" - If data is hidden behind a mouse-over effect or tooltip.
4. "action": "scroll_to" - If the target data is likely at the bottom of the page or in a section that triggers lazy-loading.
5. "action": "deep_dive" - Navigate to a NEW URL.
   - ANTI-LOOP RULE: Do NOT "deep_dive" to the current URL (%s); such a decision is ignored.

COMMON SITE HINTS:
- YouTube: "#expand", "tp-yt-paper-button#more", "#expand-user-content"
- GSMArena: "a.link-network-detail", "scroll_to" for full table
- GitHub: "a.v-align-middle", "hover" on commit messages
- Universal Expanders: "button:has-text('More')", "a[aria-label*='read']", ".show-more"

Return JSON:
{
  "action": "answer" | "deep_dive" | "click" | "hover" | "scroll_to",
  "reasoning": "What exactly is missing and why is this specific interaction needed?",
  "target_url": "url if deep_dive",
  "selector": "CSS selector if click/hover/scroll_to"
}`, query, assessment.Recommendation, blockedWarning, interactables.String(), topResults.String(), snippet, page.URL)
}

// buildSynthesisPrompt asks the oracle to turn the accumulated raw data into
// the final answer. rawJSON arrives already truncated by the caller.
func buildSynthesisPrompt(query string, page *models.PageResult, rawJSON string, extraContext []string) string {
	provenance := ""
	if page.OriginalSearch != nil {
		provenance = fmt.Sprintf("(Previously searched: %s)\n", page.OriginalSearch.URL)
	}

	relevant := ""
	if len(extraContext) > 0 {
		relevant = "\nMOST RELEVANT PASSAGES:\n" + strings.Join(extraContext, "\n---\n") + "\n"
	}

	return fmt.Sprintf(`User wanted: "%s"
We have extracted data from: %s
%s
--- RAW DATA ---
%s
--- END RAW DATA ---
%s
Filter this data and provide a comprehensive, professional response.
Use markdown tables or lists for readability.`, query, page.URL, provenance, rawJSON, relevant)
}

// buildDirectPrompt is the synthesis variant for direct navigation, where
// there was no planning phase to reference.
func buildDirectPrompt(query, directURL string, page *models.PageResult, rawJSON string) string {
	followed := ""
	if page.OriginalSearch != nil {
		followed = fmt.Sprintf("(Followed link: %s)\n", page.URL)
	}

	return fmt.Sprintf(`User wanted: "%s"
We directly visited: %s
%s
--- RAW DATA ---
%s
--- END RAW DATA ---

Filter this data and provide a comprehensive, professional response.
Use markdown tables or lists for readability.
If the data is insufficient, state what is missing.`, query, directURL, followed, rawJSON)
}
