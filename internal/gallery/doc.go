// Package gallery maintains the local cache of analyzed photos.
//
// The backend owns the truth; this SQLite database exists so browsing,
// searching, and sorting work instantly (and offline) against the last
// synced state. View preferences live in the shared key-value store, the
// same place the session does.
package gallery
