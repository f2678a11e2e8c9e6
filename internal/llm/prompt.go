package llm

import "fmt"

// BuildSQLPrompt constructs the SQL-generation prompt. Completion-style
// models get the bare task/schema/fragment shape; instruction-tuned models
// get the analyst prompt with explicit output rules.
func BuildSQLPrompt(model, dialect, schemaText, question string) string {
	if IsCompletionModel(model) {
		return fmt.Sprintf(`### Task
Generate a %s SQL query to answer the following question: %s

### Database Schema
%s

### SQL Query
SELECT`, dialect, question, schemaText)
	}

	return fmt.Sprintf(`You are an expert SQL data analyst.
Given the following database schema, write a %s query to answer the user's question.
Return ONLY the SQL query. Do not include markdown formatting like `+"```"+`sql.

Schema:
%s

Question: %s
SQL Query:`, dialect, schemaText, question)
}

// BuildAnswerPrompt constructs the answer-composition prompt embedding the
// question, the SQL used and a truncated textual rendering of the result.
func BuildAnswerPrompt(question, sqlQuery, rawResult string) string {
	return fmt.Sprintf(`You are a helpful data assistant.
Based on the user's question, the SQL query used, and the raw result, write a natural language answer.
Do not repeat the SQL query. Just give the answer in a clear sentence.

Question: %s
SQL Query: %s
Raw Result: %s

Answer (in a natural, conversational sentence):`, question, sqlQuery, rawResult)
}
