// Package sanitizer normalizes user-supplied profile and free-text input
// before validation and storage.
//
// All functions are idempotent: applying them twice produces the same result.
// Invalid input is handled by returning the empty string rather than an error.
//
// Normalization includes:
//   - Names and free text: collapse internal whitespace, trim ends
//   - Emails: trim and lowercase
//   - Phone numbers: convert to E.164 format (+[country][number])
package sanitizer
