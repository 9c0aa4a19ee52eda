package types

import "strings"

// shortIDLength is the number of hex characters in a shortened object ID.
const shortIDLength = 12

// ImageID is a hash string for a container image.
type ImageID string

// ContainerID is a hash string for a container instance.
type ContainerID string

// NetworkID is a hash string for a Docker network.
type NetworkID string

// LayerID is a content digest identifying one image layer.
type LayerID string

// ShortID returns the 12-character short version of an image ID.
func (id ImageID) ShortID() string {
	return shortID(string(id))
}

// ShortID returns the 12-character short version of a container ID.
func (id ContainerID) ShortID() string {
	return shortID(string(id))
}

// ShortID returns the 12-character short version of a network ID.
func (id NetworkID) ShortID() string {
	return shortID(string(id))
}

// TruncateID shortens an arbitrary object identifier the same way the typed
// IDs do, for identifiers that carry no dedicated type (build-cache entries).
func TruncateID(longID string) string {
	return shortID(longID)
}

// shortID shortens a hash string to 12 characters, skipping an algorithm
// prefix such as "sha256:" when present.
func shortID(longID string) string {
	prefixSep := strings.IndexRune(longID, ':')

	offset := 0
	length := shortIDLength

	if prefixSep >= 0 {
		offset = prefixSep + 1
	}

	if len(longID) >= offset+length {
		return longID[offset : offset+length]
	}

	return longID[offset:]
}
