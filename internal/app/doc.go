// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load the workflow,
// compile and validate it, execute it against the input documents, write the
// outputs and print a summary. It is decoupled from any specific entrypoint
// like a CLI or server.
package app
