package pipeline

import "strings"

// Placeholder names substituted into prompt templates at call time.
const (
	placeholderQuery   = "{query}"
	placeholderContext = "{context}"
)

// defaultClassificationTemplate asks the model for a bare topic label.
const defaultClassificationTemplate = `Classify the following question into a single topic category.
Respond with only the category name, nothing else.

Question: {query}

Category:`

// defaultResponseTemplate grounds the answer in the retrieved context.
const defaultResponseTemplate = `Answer the question using only the provided context.
If the context does not contain the answer, say so.

Context: {context}

Question: {query}

Answer:`

// PromptSet is an immutable snapshot of the two templates the pipeline
// fills at call time. A snapshot is replaced wholesale on update
// (copy-on-write), so in-flight calls always see a consistent pair.
type PromptSet struct {
	// Classification is the template for topic classification. It must
	// contain the {query} placeholder.
	Classification string

	// Response is the template for answer generation. It must contain the
	// {context} and {query} placeholders.
	Response string
}

// DefaultPrompts returns the built-in template pair.
func DefaultPrompts() PromptSet {
	return PromptSet{
		Classification: defaultClassificationTemplate,
		Response:       defaultResponseTemplate,
	}
}

// PromptOverride is a partial template update. Empty fields keep the
// current value, so callers can replace one template without restating the
// other.
type PromptOverride struct {
	Classification string
	Response       string
}

// merged returns a copy of cur with the non-empty override fields applied.
func (o PromptOverride) merged(cur PromptSet) PromptSet {
	next := cur
	if o.Classification != "" {
		next.Classification = o.Classification
	}
	if o.Response != "" {
		next.Response = o.Response
	}
	return next
}

// fill substitutes the named placeholders into template.
func fill(template, query, contextText string) string {
	r := strings.NewReplacer(
		placeholderQuery, query,
		placeholderContext, contextText,
	)
	return r.Replace(template)
}
