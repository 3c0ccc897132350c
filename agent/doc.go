// Package agent answers helpdesk questions with a team of specialists.
//
// A query passes through four stages:
//
//   - Router: asks the model which specialists (IT, HR, FINANCE, WEB_SEARCH)
//     are relevant, most relevant first. Exact ids are tried before looser matches and
//     an unusable reply routes to WEB_SEARCH.
//   - DomainPipeline: one implementation shared by every knowledge domain and
//     parameterized by a DomainDescriptor. It retrieves snippets, rates its
//     confidence from 0 to 100, asks a clarifying question below 75, and
//     otherwise answers. A reply containing FALLBACK_TO_WEB_SEARCH, or any
//     failure, hands the query to the web-search specialist.
//   - WebSearchPipeline: handles greetings, questions about the conversation
//     itself, and everything else by synthesizing an answer from normalized
//     search results.
//   - Engine: runs the routed specialists strictly one at a time, cleans each
//     answer against its specialist's scope, and merges them into a summary.
//
// # Failure policy
//
// No stage surfaces an error to the caller. Routing failures route to web
// search, retrieval and search failures count as "no results", generation
// failures in a domain hand off to web search, and a failed summary degrades
// to the cleaned answers joined by blank lines. If orchestration itself breaks
// (a panic or an id with no pipeline) the engine answers with a single web
// search run, and failing that, a fixed apology.
//
// # State
//
// Each run threads a State value. Its methods return new values, so one
// run's bookkeeping can never be observed half-updated.
//
// # Capabilities
//
// The engine owns handles to its three external capabilities: an
// llm.Completer, a knowledge.Retriever and a search.Searcher. Tests substitute
// fakes for all three.
//
// # Subpackages
//
// agent/terminal: an interactive prompt over chat.Service.
//
// agent/mcp: a Model Context Protocol server exposing the helpdesk as a tool.
package agent
