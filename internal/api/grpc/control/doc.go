// Package control implements the gRPC remote control of a running watch.
//
// The service is declared by hand with well-known protobuf types instead of
// generated code: requests are google.protobuf.Empty and the status is a
// google.protobuf.Struct with the same fields as the status file. Calls are
// rate limited so that a looping script cannot flood the coordinator inbox.
package control
