// Package util provides small helpers shared across CareBoard packages.
package util

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ids struct {
	sync.Mutex
	ms  int64
	seq uint16
}

// NewID returns a UUIDv7 string. IDs sort by creation time, including IDs
// issued within the same millisecond.
func NewID() string {
	ids.Lock()
	defer ids.Unlock()

	ms := time.Now().UnixMilli()
	switch {
	case ms > ids.ms:
		ids.ms, ids.seq = ms, 0
	case ids.seq < 0x0FFF:
		ids.seq++
	default:
		// sequence exhausted, borrow the next millisecond
		ids.ms++
		ids.seq = 0
	}
	return uuidV7(ids.ms, ids.seq).String()
}

func uuidV7(ms int64, seq uint16) uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[0:8], uint64(ms)<<16|uint64(0x7000|seq))
	_, _ = rand.Read(u[8:])
	u[8] = u[8]&0x3F | 0x80
	return u
}
