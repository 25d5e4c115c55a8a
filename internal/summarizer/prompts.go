package summarizer

import "fmt"

const singleShotPrompt = `You are an assistant that writes structured summaries of markdown documents.

Summarize the document below section by section.
- Keep the document's own headings and order.
- Under each heading write the key points as short bullet items.
- Keep names, numbers, and dates exactly as written.
- Do not repeat a point and do not add closing remarks or notes about the summary itself.

Document:
%s

Summary:
`

const chunkPrompt = `Summarize part %d of %d of a longer markdown document.
- Start with the heading "## Part %d".
- List the key points of this part only, as short bullet items.
- Keep names, numbers, and dates exactly as written.
- Do not repeat a point and do not add closing remarks.

Text:
%s

Summary:
`

const reducePrompt = `The text below contains partial summaries of one long document, separated by "---".
Merge them into one coherent summary of the whole document.
- Organize it by topic with markdown headings.
- Merge overlapping points and drop repetition.
- Keep every distinct fact, name, number, and date.
- Do not mention the parts, and do not add closing remarks.

Partial summaries:
%s

Final summary:
`

func buildSingleShotPrompt(content string) string {
	return fmt.Sprintf(singleShotPrompt, content)
}

func buildChunkPrompt(index, total int, text string) string {
	return fmt.Sprintf(chunkPrompt, index, total, index, text)
}

func buildReducePrompt(joined string) string {
	return fmt.Sprintf(reducePrompt, joined)
}
