// Package signals turns termination signals into coordinator Quit commands.
package signals
