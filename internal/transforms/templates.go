package transforms

import (
	"github.com/lorekeep/insight-core/internal/core/domain"
)

// builtinDefinitions is the fixed definition table. Each caller-facing kind
// maps to exactly one entry; templates are treated as opaque instructions by
// the engine.
var builtinDefinitions = []domain.Definition{
	{
		Kind:             domain.KindSimpleSummary,
		Description:      "A short plain-language summary of the document",
		MaxContentTokens: 8000,
		PromptTemplate: "You are a note-taking assistant. Summarize the " +
			"following document in a few short paragraphs of plain " +
			"language. Keep the author's terminology and do not add " +
			"information that is not in the text.",
	},
	{
		Kind:             domain.KindDenseSummary,
		Description:      "A detailed summary preserving structure and key arguments",
		MaxContentTokens: 12000,
		PromptTemplate: "You are a note-taking assistant. Write a dense, " +
			"information-rich summary of the following document. Preserve " +
			"its structure, cover every major section, and keep concrete " +
			"details such as names, figures and definitions.",
	},
	{
		Kind:             domain.KindHierarchicalSummary,
		Description:      "A summary of a folder composed from its children",
		MaxContentTokens: 10000,
		PromptTemplate: "You are a note-taking assistant. The following text " +
			"contains summaries of the files and subfolders of one folder. " +
			"Write a summary of the folder as a whole: what it is about, " +
			"what its parts cover, and how they relate.",
	},
	{
		Kind:             domain.KindKeyInsights,
		Description:      "The key insights of the document as a bullet list",
		MaxContentTokens: 8000,
		PromptTemplate: "You are a note-taking assistant. Extract the key " +
			"insights from the following document as a concise bullet " +
			"list under a heading containing the word INSIGHTS. Each " +
			"bullet states one self-contained insight.",
	},
	{
		Kind:             domain.KindReflections,
		Description:      "Reflective questions and connections prompted by the document",
		MaxContentTokens: 8000,
		PromptTemplate: "You are a note-taking assistant. Read the following " +
			"document and write reflections under a heading containing the " +
			"word REFLECTIONS: open questions it raises, tensions in its " +
			"argument, and connections worth exploring.",
	},
	{
		Kind:             domain.KindTableOfContents,
		Description:      "A table of contents derived from the document structure",
		MaxContentTokens: 16000,
		PromptTemplate: "You are a note-taking assistant. Produce a table of " +
			"contents for the following document: a nested outline of its " +
			"sections and subsections with one-line descriptions.",
	},
	{
		Kind:             domain.KindPaperAnalysis,
		Description:      "A structured analysis of an academic paper",
		MaxContentTokens: 12000,
		PromptTemplate: "You are a research assistant. Analyze the following " +
			"paper under exactly these five headings: PURPOSE, " +
			"CONTRIBUTION, KEY FINDINGS, IMPLICATIONS, LIMITATIONS. Be " +
			"specific and cite the paper's own claims.",
	},
	{
		Kind:             domain.KindConciseDenseSummary,
		Description:      "A one-paragraph dense summary used for composition",
		MaxContentTokens: 4000,
		PromptTemplate: "You are a note-taking assistant. Compress the " +
			"following document into a single dense paragraph that a later " +
			"pass can combine with sibling summaries. No preamble.",
	},
	{
		Kind:             domain.KindFolderCombine,
		Description:      "Combines child summaries into one folder summary",
		MaxContentTokens: 12000,
		PromptTemplate: "You are a note-taking assistant. The sections below " +
			"each summarize one child of a folder, files first, then " +
			"subfolders. Combine them into one coherent summary of the " +
			"folder. Mention notable children by name; skip boilerplate.",
	},
}
