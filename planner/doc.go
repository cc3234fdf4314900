// Package planner provides planning.Planner implementations.
//
// LLM asks a language model (see model/anthropic and model/openai) for a plan
// and reads the answer line by line. Scripted replays canned answers and is
// used by tests and demos.
package planner
