// Package ir provides the foundational identifiers and serialized document
// types shared by every WireGraph package.
//
// This package contains type definitions and pure encoding helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the document format the lowest layer with no circular dependencies.
//
// Key design constraints:
//   - NodeID and LinkID are int64 values; zero always means "no entity"
//   - Link IDs are monotonic per graph and never reused (LastLinkID persists them)
//   - Optional sub-maps are omitted from JSON when empty
//   - Content hashes use canonical JSON (sorted UTF-16 keys, NFC strings)
package ir
