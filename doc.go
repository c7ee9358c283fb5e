// Package tracker implements the core of a multi-tenant activity tracking
// API: credential verification, HMAC token issuance with access/refresh
// rotation, a persistent token ledger with replay detection, and the
// repositories backing users and activities.
//
// Session lifecycle:
//   - TokenService mints short-lived access tokens and longer-lived refresh
//     tokens, both carrying a jti that is recorded in the TokenLedger.
//   - SessionManager runs the per-request state machine: a valid access token
//     is checked against the blacklist, an expired one is exchanged for a new
//     pair through single-use refresh consumption. Reusing a spent refresh
//     token revokes every outstanding token for that subject.
//   - middleware/sessionware adapts the state machine to go-router so handlers
//     only ever see resolved claims.
package tracker
