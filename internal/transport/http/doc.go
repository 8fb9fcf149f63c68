// Package http implements the dashboard's HTTP handlers. It is a thin layer
// between the chi router and the services: handlers parse query parameters,
// call a service and render JSON.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Table
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Filters
//
// Every view except options and schema accepts the sidebar filters as query
// parameters: year_min, year_max, gpa_min, gpa_max, middle_school, track,
// department, keyword and a repeatable group. Values that do not parse, and
// criteria the validator rejects, produce a 400 with per-field errors.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details and leave through
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/admissions/records"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a mocked service.
package http
