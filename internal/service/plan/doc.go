// Package plan implements calendar plan business logic: draft
// generation, validation, persistence, and campaign rescheduling. It
// coordinates the pure planner core, the LLM generator, the repository,
// and the per-client-month draft lock.
package plan
