// Package notifications sends ntfy push notifications for scan sessions and
// job outcomes. It is strictly observational: nothing in the engine depends
// on a notification being delivered.
package notifications
