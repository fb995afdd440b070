package rag

import (
	"regexp"
	"strings"

	"pizza-rag/internal/models"
)

var pizzaNameRe = regexp.MustCompile(models.PizzaNameRegex)

// Query is a question after preprocessing.
type Query struct {
	Text      string
	PizzaName string
}

// Preprocess extracts the text following the first "pizza" of the question
// and puts it back trimmed. Questions without a match pass through as is.
func Preprocess(question string) Query {
	m := pizzaNameRe.FindStringSubmatch(question)
	if m == nil {
		return Query{Text: question}
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return Query{Text: question}
	}
	return Query{
		Text:      strings.ReplaceAll(question, m[1], name),
		PizzaName: name,
	}
}
