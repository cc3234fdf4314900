// Package model defines the provider-agnostic text generation abstraction
// used by the language model planner.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so the planner remains decoupled from vendor SDKs. Complete drains
// a generation into a single Response.
package model
