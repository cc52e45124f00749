// Package prompts holds the behavioral instructions sent to the completion
// services. Keeping them as embedded text files keeps policy changes out of
// orchestration code and makes them reviewable as plain diffs.
package prompts

import _ "embed"

//go:embed persona.txt
var persona string

//go:embed comfort.txt
var comfort string

//go:embed primary_concern.txt
var primaryConcern string

//go:embed user_details.txt
var userDetails string

//go:embed summary.txt
var summary string

// Persona is the retrieval-augmented answer template. It takes the recent
// chat history, the retrieved context, and the user's question, in that order.
func Persona() string { return persona }

// Comfort is the empathetic-reply template. It takes the detected emotion.
func Comfort() string { return comfort }

// PrimaryConcern extracts the dominant issue from a chat history.
func PrimaryConcern() string { return primaryConcern }

// UserDetails extracts "Name: <x>, Age: <y>" from a chat history.
func UserDetails() string { return userDetails }

// Summary produces the counselor-facing session summary.
func Summary() string { return summary }
