// Package status keeps the latest render snapshot for remote readers.
//
// The Store follows the render fan-out, keeps the newest snapshot in memory
// and optionally mirrors it to a JSON file that shell prompts can read. The
// JSON is produced with protojson from a structpb.Struct, the same message the
// remote control API returns.
package status
