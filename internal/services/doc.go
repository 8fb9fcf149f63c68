// Package services implements the business logic layer of the admissions
// dashboard. It sits between the HTTP handlers and the admissions package,
// keeping filter rules, caching and metrics out of the transport.
//
// # Services
//
//   - AdmissionsService: loads and caches the classified table and computes
//     the dashboard views (options, records, university counts, yearly
//     trends, GPA by school and track, group trends, schema, summary)
//   - HealthService: health, readiness, liveness and version reports
//
// # Caching
//
// The classified table is immutable and shared by every request. It is
// cached under path|sheet|size|modtime, so editing the input file makes the
// next request reload it while an unchanged file is never read twice.
// Concurrent first loads are collapsed into one with singleflight.
//
// # Filter criteria
//
// FilterCriteria mirrors the dashboard sidebar. It is validated with
// go-playground/validator before use; a zero field disables its filter and
// 전체 means "all" for single-choice filters. Filters naming a column the
// input lacks are skipped.
//
// Year and GPA ranges apply only when set. Zero criteria therefore keep rows
// whose 졸업년도 or 내신(고) is missing or unreadable, while the dashboard
// sidebar always applies both sliders and drops those rows. Clients that want
// the sidebar's initial view send the year_min, year_max, gpa_min and gpa_max
// bounds reported by Options.
//
// # Counting
//
// Count views count rows whose outcome is 합격 and whose student name is
// present. The GPA view averages over all filtered rows.
//
// # Error Handling
//
// Services return wrapped errors for the handlers to map:
//
//   - ErrInvalidCriteria wrapping validator.ValidationErrors (400)
//   - admissions.ErrDataUnavailable inside an AppError (503)
//   - admissions.ErrUnknownField (400)
package services
