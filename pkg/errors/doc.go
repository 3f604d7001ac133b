// Package errors provides structured error types shared by all deploykit
// pipeline stages.
//
// Every fatal stage failure is reported as a StructuredError whose Code names
// the stage that produced it (VALIDATION, ACQUISITION, BUILD, PUBLISH,
// DEPLOY). VERIFICATION is the one non-fatal code: the orchestrator
// downgrades it to a warning on an otherwise successful deploy.
package errors
