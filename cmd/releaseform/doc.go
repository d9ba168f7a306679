// Command releaseform fills, renders, and tracks release requests.
//
//	releaseform forms                 list the available forms
//	releaseform fill single           fill and submit a form interactively
//	releaseform render single         print the blank form as HTML or a summary
//	releaseform requests list         list stored requests
//	releaseform openapi operations    list operations of an OpenAPI document
//	releaseform config init           write a sample configuration
package main
