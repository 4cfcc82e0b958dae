// Package errors defines the failure taxonomy of the factsheet pipeline.
//
// Every stage returns a *ReportError whose Kind tells front ends how to treat
// it: NotFound and InvalidSettings are caller mistakes, MissingInput and
// InvalidData point at fund data, ArtifactGeneration, Render and Export mean no
// document was produced, and Publish means the document exists locally but
// could not be uploaded.
//
// Example usage:
//
//	if errors.Is(err, errors.ErrPublish) {
//	    // the exported document is still valid
//	}
//
// ToProblem renders any error as RFC 7807 problem details for the web front end.
package errors
