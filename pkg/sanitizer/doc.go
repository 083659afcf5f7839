// Package sanitizer normalizes free-text reservation fields before they are
// validated, stored, or printed in conflict messages.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings rather than errors.
//
// Normalization includes:
//   - Names: Collapse whitespace, drop control characters, trim leading/trailing spaces
//   - E-mails: Trim, lowercase, drop control characters
//   - Resource ids: Trim, uppercase, keep letters, digits and dashes - "ab 123" becomes "AB-123"
package sanitizer
