// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.rockybot.
//
// Adapters:
//   - ConfigStore: TOML configuration with dot-separated keys
//   - PromptStore: user-editable prompt templates
package file
