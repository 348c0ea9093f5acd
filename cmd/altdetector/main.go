// AltDetector correlates player identities that join from the same network
// address and reports likely alternate accounts.
//
// Usage:
//
//	# Process join events from stdin
//	altdetector run --config config.yml < events.jsonl
//
//	# Look up a player's alts
//	altdetector alts Alice
//
//	# Remove a player's records
//	altdetector delete Alice
//
//	# Import the legacy ipdata.yml file once
//	altdetector convert --from yml --file ipdata.yml
package main

import "os"

func main() {
	os.Exit(Execute())
}
