// Package almondsdk is the HTTP client for the almond user-center QR login
// endpoints.
//
// Every response is wrapped in a {code, data, message} envelope where code
// 0 or 200 means success. Failures are reported as:
//
//   - *APIError when the provider answered with a non-success code or a
//     non-2xx HTTP status,
//   - ErrRequestTimeout when the per-call timeout fired before an answer,
//   - ErrMalformedResponse when a success envelope lacks required fields,
//   - the caller's context error when the caller cancelled.
//
// The same wire types are used by the provider in internal/qrauth so both
// sides agree on the field names.
package almondsdk
