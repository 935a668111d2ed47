package badger

import (
	"encoding/binary"

	"github.com/poiesic/audiomind/core"
)

// Key prefixes for different data types
const (
	podcastPrefix     = "podrec"
	podcastNamePrefix = "podname"
	episodePrefix     = "eprec"
	episodeIDSeq      = "eprecseq"
	segmentPrefix     = "segrec"
	segmentIDSeq      = "segrecseq"
	checkpointPrefix  = "chkpt"
)

// makeIDKey builds "<prefix>:" followed by the ID as eight big-endian
// bytes. The fixed-width suffix makes lexicographic key order equal
// numeric ID order, so prefix scans visit records in ID order.
func makeIDKey(prefix string, id core.ID) []byte {
	key := make([]byte, 0, len(prefix)+9)
	key = append(key, prefix...)
	key = append(key, ':')
	return binary.BigEndian.AppendUint64(key, uint64(id))
}

// makePodcastKey generates a key for a podcast by ID.
func makePodcastKey(id core.ID) []byte {
	return makeIDKey(podcastPrefix, id)
}

// makePodcastNameKey generates a key for the podcast name index.
// Names are case-sensitive; the raw name is the key suffix.
func makePodcastNameKey(name string) []byte {
	return []byte(podcastNamePrefix + ":" + name)
}

// makeEpisodeKey generates a key for an episode by ID.
func makeEpisodeKey(id core.ID) []byte {
	return makeIDKey(episodePrefix, id)
}

// makeSegmentKey generates a key for a segment by ID.
func makeSegmentKey(id core.ID) []byte {
	return makeIDKey(segmentPrefix, id)
}

// makeCheckpointKey generates a key for a processor checkpoint.
func makeCheckpointKey(processorType string) []byte {
	return []byte(checkpointPrefix + ":" + processorType)
}
