package extract

import "strings"

const windowPromptHeader = "You are reading a fragment (at most a few dozen lines) of a bank statement.\n\n" +
	"Extract every transaction in the fragment and return a JSON array of objects with exactly these keys:\n" +
	"- \"date\": string, strictly YYYY-MM-DD (e.g. 2019-12-31). Skip any transaction whose date is missing or not in this format.\n" +
	"- \"description\": string\n" +
	"- \"amount\": number, signed, negative for debits\n" +
	"- \"type\": the string \"debit\" or \"credit\", nothing else\n\n" +
	"If the statement has separate Debit and Credit columns, treat a blank column as zero.\n" +
	"Return ONLY the raw JSON array. No Markdown, no code fences, no explanation.\n" +
	"If the fragment contains no transactions, return [].\n\n" +
	"Fragment:\n"

// buildWindowPrompt renders the extraction prompt for one window.
func buildWindowPrompt(lines []string) string {
	var b strings.Builder
	b.WriteString(windowPromptHeader)
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	return b.String()
}
