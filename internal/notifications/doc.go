// Package notifications delivers client events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Upload and error events can be toggled independently so a user
// can keep failure alerts without upload chatter.
//
// Extend this package if you need alternative transports; command code
// depends only on the simple Service interface.
package notifications
