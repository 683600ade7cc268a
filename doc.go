// Package auth implements the credential and session lifecycle for a
// cookie-based web application: activation tickets for registration, signed
// access/refresh token pairs, and a cache-backed session record that is the
// authority on login liveness.
//
// Three artifacts with independent lifetimes are coordinated here:
//   - An activation ticket is a signed, self-contained artifact carrying a
//     draft user and a one-time code. It is never stored server-side; its
//     signature and embedded expiry are the only state.
//   - A token pair (short-lived access token, long-lived refresh token) is
//     minted at login and rotated on every successful refresh.
//   - A session record keyed by user id lives in Redis with a TTL that is
//     reset to the full window on every refresh. A cryptographically valid
//     token without a live session is rejected.
//
// The SessionVerifier folds token renewal into the request gate: a request
// carrying an expired access token and a valid refresh token is refreshed
// in-band, both cookies are rotated together, and the request proceeds as if
// it had presented a fresh access token from the start.
package auth
