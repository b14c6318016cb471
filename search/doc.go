// Package search is the web search collaborator used by the research-execution
// variant of the scoping agent.
//
// A Searcher returns ordered Results. Two providers are included:
//
//   - Tavily: POST https://api.tavily.com/search (TAVILY_API_KEY)
//   - Brave: GET https://api.search.brave.com/res/v1/web/search (BRAVE_API_KEY)
//
// Snippets are reduced to plain text with goquery, since engines wrap matched
// terms in markup.
//
// FormatResults renders results for the summarizer prompt. Run combines search and
// formatting and never returns an empty string: a failed or empty search becomes
// NoResults so the report step still has something to work from.
//
//	s, err := search.NewTavily("", search.WithTavilyMaxResults(5))
//	content, err := search.Run(ctx, s, "offshore wind capacity in Europe")
package search
