// Package provider defines the capability contract external
// text-generation backends must satisfy, the optional-extension
// interfaces discovered once at registration, and the registry/factory
// that constructs handles under a bounded timeout.
//
// The engine treats everything behind the Provider interface as an
// external collaborator: retry, auth, and rate-limit logic belong to the
// concrete adapters (see the openaicompat subpackage), never to the
// orchestration core.
package provider
