// Package httpapi serves the ride coordinator as a JSON HTTP API.
//
// Every request selects its region and read consistency with the X-Region and
// X-Consistency-Level headers. Errors are answered with the status of their
// kind (404, 409, 400 or 500) and a body of the form
//
//	{"error": "NotFound", "message": "ride 42 not found"}
package httpapi
