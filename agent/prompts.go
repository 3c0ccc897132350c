package agent

import (
	"fmt"
	"strings"

	"github.com/krishg0kul/genai-multi-agent/search"
)

const (
	noSearchResults = "No search results available. The search API may be unavailable or the query returned no results."
	noRecord        = "I have no record of your previous questions."
	apology         = "I apologize, but I'm having trouble answering your question right now. Please try again later."
	defaultGreeting = "Hello! How can I help you today?"
)

// formatHistory renders prior turns for domain and routing prompts. An empty
// history renders as nothing.
func formatHistory(history History) string {
	if len(history) == 0 {
		return ""
	}
	return "\nPREVIOUS CONVERSATION:\n" + transcript(history)
}

func transcript(history History) string {
	lines := make([]string, 0, len(history))
	for _, e := range history {
		speaker := "Assistant"
		if e.IsUser() {
			speaker = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, e.Content))
	}
	return strings.Join(lines, "\n")
}

// formatSearchContext numbers up to limit results for a synthesis prompt.
func formatSearchContext(results []search.Result, limit int) string {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		return noSearchResults
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[%d] %q\n%s\nSource: %s", i+1, r.Title, r.Snippet, r.Link)
	}
	return strings.Join(parts, "\n\n")
}

func routingPrompt(query string, history History, catalogue string) string {
	return fmt.Sprintf(`You are a router agent that determines which specialized agents should handle a user query.
%s
USER QUERY: "%s"

AVAILABLE AGENTS:
%s

INSTRUCTIONS:
1. Analyze the query to understand its domains and the expertise it requires.
2. A query may span several domains. If it does, choose every agent that is needed.
3. List the chosen agent names, most relevant first, separated by commas (for example: IT, HR).
4. Respond ONLY with agent names from the list above. Do not add any other text.`,
		formatHistory(history), query, catalogue)
}

func routingReasonPrompt(query string, history History, agents []ID) string {
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = string(a)
	}
	return fmt.Sprintf(`You are a router agent that has decided to route this query:
"%s"
%s
to the following agent(s): %s.

Briefly explain why these are the appropriate agents.
Keep your explanation under 100 words.`,
		query, formatHistory(history), strings.Join(names, ", "))
}

func confidencePrompt(query, documentContext string, history History) string {
	return fmt.Sprintf(`Evaluate your confidence in answering the following query based on the available documentation:

Query: "%s"

Available documentation context:
%s
%s
Instructions:
1. Analyze how well the documentation addresses the specific query
2. Consider if the documentation provides clear, specific information that directly answers the query
3. Assess if there are multiple possible interpretations of the query that the documentation doesn't clearly distinguish between
4. Determine if the documentation contains all the necessary details to provide a complete answer

Rate your confidence on a scale of 0 to 100, where:
- 0-50: Documentation doesn't address the query at all or is extremely vague
- 51-70: Documentation partially addresses the query but lacks important details
- 71-80: Documentation addresses the query but some clarification would help
- 81-90: Documentation addresses the query well with minor gaps
- 91-100: Documentation fully addresses the query with all necessary details

Respond with ONLY a number between 0 and 100 representing your confidence percentage.`,
		query, documentContext, formatHistory(history))
}

func clarifyPrompt(query, documentContext string) string {
	return fmt.Sprintf(`Generate a clarifying question for the following user query:

Query: "%s"

Available documentation context:
%s

Instructions:
1. Identify the specific aspect of the query that needs clarification
2. Formulate a clear, concise question that will help you better understand the user's intent
3. Offer concrete options drawn from the available documentation
4. Make the question conversational and helpful

Your response should be ONLY the clarifying question, without any additional text.`,
		query, documentContext)
}

func domainAnswerPrompt(d DomainDescriptor, query, documentContext string, history History) string {
	if documentContext == "" {
		documentContext = fmt.Sprintf("No specific %s documentation available.", d.DisplayName)
	}
	return fmt.Sprintf(`You are a %s specialist responding to a question.
Your scope: %s
%s
CURRENT QUESTION: "%s"

RELEVANT DOCUMENTATION:
%s

Instructions:
1. Consider the previous conversation context when providing your response
2. Look for ANY relevant information in the documentation that relates to the query
3. Include EXACT figures, amounts, limits and rules. Do NOT use placeholders
4. Format your response with bullet points when listing multiple items
5. If the documentation does not address the query, respond with "%s" and nothing else

IMPORTANT: Your response must be specific and detailed. Do not use generic descriptions when the documentation provides specific information.`,
		d.DisplayName, d.Scope, formatHistory(history), query, documentContext, Sentinel)
}

func greetingClassifyPrompt(query string) string {
	return fmt.Sprintf(`Analyze if the following text is a greeting or introduction:
"%s"

Respond with either "GREETING" or "NOT_GREETING".
A greeting includes words like hello, hi, hey, greetings, etc.
Keep your response to just one of these two words.`, query)
}

func greetingReplyPrompt(query string) string {
	return fmt.Sprintf(`You are a friendly assistant. The user has greeted you with: "%s"

Respond with a warm, welcoming greeting and ask how you can help them today.
Keep your response brief, friendly, and conversational.`, query)
}

func historyClassifyPrompt(query string, history History) string {
	return fmt.Sprintf(`Decide whether the user's message refers to the earlier conversation (for example asking what they said or asked before) or starts a new topic.

CONVERSATION SO FAR:
%s

USER MESSAGE: "%s"

Respond with exactly one word: "HISTORY" or "NEW_TOPIC".`, transcript(history), query)
}

func historyAmbiguityPrompt(query string, history History) string {
	return fmt.Sprintf(`The user is asking about the earlier conversation.

CONVERSATION SO FAR:
%s

USER MESSAGE: "%s"

Can this message be answered unambiguously from the conversation above? A question about the last or previous question is always CLEAR.
Respond with exactly one word: "CLEAR" or "AMBIGUOUS".`, transcript(history), query)
}

func historyClarifyPrompt(query string, history History) string {
	return fmt.Sprintf(`The user asked about the earlier conversation, but it is unclear which part they mean.

CONVERSATION SO FAR:
%s

USER MESSAGE: "%s"

Ask one short clarifying question that lists the candidate topics from the conversation as options.
Your response should be ONLY the clarifying question.`, transcript(history), query)
}

func historyAnswerPrompt(query string, history History) string {
	return fmt.Sprintf(`Answer the user's question about the earlier conversation using only the transcript below.

CONVERSATION SO FAR:
%s

USER MESSAGE: "%s"

Instructions:
1. Quote or reference the matching entries exactly as they were written
2. If the user asks about their last question, quote their most recent question. Do not ask for clarification
3. If nothing in the transcript matches, say so plainly`, transcript(history), query)
}

func searchAmbiguityPrompt(query, searchContext string, history History) string {
	return fmt.Sprintf(`Decide whether the user's question is clear enough to answer from the search results.
%s
USER QUESTION: "%s"

SEARCH RESULTS:
%s

Guidance:
- Simple factual questions (for example "capital of France") are always CLEAR, even if nominally ambiguous.
- Answer AMBIGUOUS only when the question is genuinely ambiguous and the results give no usable signal about what the user means.

Respond with exactly one word: "CLEAR" or "AMBIGUOUS".`, formatHistory(history), query, searchContext)
}

func searchClarifyPrompt(query, searchContext string) string {
	return fmt.Sprintf(`The user's question is ambiguous: "%s"

SEARCH RESULTS:
%s

Ask one short clarifying question that offers the distinct interpretations suggested by the results as options.
Your response should be ONLY the clarifying question.`, query, searchContext)
}

func searchAnswerPrompt(query, searchContext string, history History) string {
	return fmt.Sprintf(`You are a web search agent responsible for finding information when other specialized agents cannot help.
Use ONLY the following search results to answer the user's question. Ignore anything you know that the results do not state.
%s
Search Results:
%s

User question: "%s"

Provide a clear and helpful response based on the search results.
Always cite sources when providing information.
If the search results don't provide enough context, acknowledge the limitations.`, formatHistory(history), searchContext, query)
}

func cleanPrompt(id ID, scope, answer string) string {
	return fmt.Sprintf(`You are editing the answer produced by the %s agent.
Agent scope: %s

ANSWER:
%s

Rewrite the answer so that it:
1. Keeps only facts that belong to this agent's scope
2. Drops any mention of other departments or domains
3. Removes hedging such as "this information is not available" or "please ask elsewhere"
4. Keeps exact figures, steps and sources unchanged

If the answer is a question to the user, return it unchanged.
Respond with the rewritten answer only.`, id, scope, answer)
}

func summaryPrompt(query string, results []Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[%s AGENT]\n%s", r.Agent, r.Cleaned)
	}
	return fmt.Sprintf(`Combine the following specialist responses into one answer to the user's question.

USER QUESTION: "%s"

RESPONSES:
%s

Instructions:
1. Preserve which agent each piece of information came from
2. Merge related facts and remove repetition
3. Separate different topics with line breaks
4. Write in clear paragraphs. Do not invent facts that no agent provided`, query, strings.Join(parts, "\n\n"))
}
