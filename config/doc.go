// Package config resolves process-wide configuration.
//
// All settings come from SECFLOW_-prefixed environment variables with
// built-in defaults; credentials and webhook URLs are never configured here,
// they arrive on each request. Configuration is read once at startup and
// injected into the workflow constructors.
package config
