// Package observability provides the diagnostic and user-facing output
// sinks for questforge: the zap logger, the JSONL domain event log, and the
// toast notifiers (terminal and Slack) the wizard reports to.
package observability
