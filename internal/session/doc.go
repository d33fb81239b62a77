// Package session owns the client-side credential lifecycle.
//
// TokenStore is the single writer of persisted session state: access and
// refresh tokens, the absolute expiry, and the cached user profile live
// together in one storage.Store and are cleared together. Guard layers the
// session policy on top: optimistic resume from cache, background
// verification that self-heals the profile, hard teardown on 401/403, and
// retention of the cached session across transient backend failures.
package session
