// Package terminal implements the interactive command-line mode of the
// helpdesk.
//
// The user types questions at a "You:" prompt and the answer is printed as
// soon as the agents have produced it. Every turn goes through the chat
// service, so the conversation is recorded in the same per-user memory the
// HTTP server uses, and a later HTTP request for the same user sees it.
//
// # Usage
//
//	svc := chat.NewService(engine, store)
//	term := terminal.New(svc, "alice", terminal.WithRouting(true))
//	err := term.Run(ctx, initialQuestion)
//
// # Commands
//
//   - /quit, /exit: end the session
//   - /clear: forget the user's conversation history
//   - /history: print the recorded conversation
//
// # Routing output
//
// With WithRouting the terminal also prints which specialists answered and
// the router's reasoning before each answer.
package terminal
