// Package sanitizer provides input normalization for booking data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings rather than errors.
//
// Normalization runs before validation and storage so that equivalent inputs
// compare equal:
//   - Strings: collapse internal whitespace, trim leading/trailing spaces
//   - Resource IDs: whitespace hygiene only; identity is never case-folded
package sanitizer
