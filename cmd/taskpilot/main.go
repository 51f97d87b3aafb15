// Taskpilot is the AI provider gateway of the Taskpilot task planner.
//
// It issues uniform chat-completion requests against any of the supported
// LLM providers (OpenAI-compatible services, Anthropic, Google, local
// Ollama), normalizing payload shapes, authentication, and streaming wire
// formats.
//
// Usage:
//
//	# Validate the configured provider settings
//	taskpilot validate
//
//	# Test connectivity against the configured provider
//	taskpilot test
//
//	# List the provider's available models
//	taskpilot models
//
//	# Stream a completion to stdout
//	taskpilot chat "summarize my day"
//
//	# Generate the daily summary once, or on a schedule
//	taskpilot summary
package main

func main() {
	Execute()
}
