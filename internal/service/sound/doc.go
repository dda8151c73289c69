// Package sound implements the alert effect.
//
// The Player plays the configured sound file through the platform's audio
// player (afplay on macOS, paplay or aplay on Linux, PowerShell on Windows).
// Without a usable file it plays a built-in sound written under the settings
// directory. The terminal bell is the last resort.
package sound
