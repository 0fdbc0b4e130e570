package chat

import "fmt"

// Prompt construction is kept in explicit value objects with named slots
// so tests can assert on slot contents independent of the final wording.
// The wording itself is load-bearing: the sentinel instruction and the
// "output only SQL" preamble are what keep the model's output executable.

// SentinelToken is the reserved marker the model emits when no SQL query
// applies to the user's question.
const SentinelToken = "NOT_A_QUERY"

// SynthesizerPrompt carries the slots of the text-to-SQL prompt.
type SynthesizerPrompt struct {
	Dialect  string
	Schema   string
	Rules    string
	History  string
	Question string
}

// Render assembles the prompt in fixed slot order: preamble, schema,
// rules, history, question.
func (p SynthesizerPrompt) Render() string {
	return fmt.Sprintf(`You are a Text-to-SQL expert. Your task is to convert a user's question into a valid %s query.
You must only output the SQL query and nothing else. Do not add any explanation or markdown.
If the user's question is not a question that can be answered by querying the database (e.g., "hello", "how are you"),
simply respond with the word "%s".

Database Schema:
---
%s
---

%s

Conversation History (for context on follow-up questions):
---
%s
---

User Question:
---
%s
---

SQL Query:
`, p.Dialect, SentinelToken, p.Schema, p.Rules, p.History, p.Question)
}

// ComposerPrompt carries the slots of the result-to-text prompt.
type ComposerPrompt struct {
	History  string
	Question string
	Data     string
}

// Render assembles the answer-composition prompt.
func (p ComposerPrompt) Render() string {
	return fmt.Sprintf(`You are a helpful chatbot assistant. Your task is to answer the user's question based on the data provided.
Formulate a friendly, conversational, and natural language response. Do not just repeat the data in a table.

Conversation History:
---
%s
---

User's Original Question: "%s"

Data from Database:
---
%s
---

Your friendly response:
`, p.History, p.Question, p.Data)
}

// ConversationalPrompt is the plain fallback used by the web variant when
// the question is not answerable by query.
type ConversationalPrompt struct {
	Message string
}

func (p ConversationalPrompt) Render() string {
	return fmt.Sprintf("You are a helpful chatbot. The user said: '%s'. Respond conversationally.", p.Message)
}
