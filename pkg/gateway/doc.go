// Package gateway implements the orchestration layer of the AI provider
// gateway: configuration validation, connectivity testing, model-catalog
// fetching, structured extraction, streaming completion, and the workflows
// built on top of them (daily summary, echo report, editor polish).
//
// The gateway owns no persisted state. Settings arrive from the caller on
// every invocation; the only shared structure is the read-mostly adapter
// registry. Each streaming call owns exactly one in-flight HTTP request and
// one decoder buffer.
package gateway
