package quota

import (
	"errors"
)

// UsageRecordName is the reserved file inside an area that holds the
// number of bytes the area has already consumed.
const UsageRecordName = ".usage"

// maxUsageRecordSize bounds the bytes read when parsing a usage record.
// A valid record is a single ASCII decimal; anything larger is malformed.
const maxUsageRecordSize = 64

var (
	// ErrNoUsageRecord indicates the area has no usage record. Areas are
	// provisioned by the external quota authority; an absent record means
	// the area must not accept writes.
	ErrNoUsageRecord = errors.New("usage record missing")
	// ErrBadUsageRecord indicates the usage record exists but does not
	// hold a non-negative ASCII decimal.
	ErrBadUsageRecord = errors.New("usage record malformed")
)

// Config describes a storage area.
type Config struct {
	// Name is the area's directory name on the filesystem.
	Name string `json:"name" validate:"required"`
	// Quota is the area's total capacity in bytes, including what is
	// already consumed.
	Quota int64 `json:"quota" validate:"gte=0"`
}

// Snapshot is a point-in-time view of an area's usage, read once per
// transfer and never renegotiated while the transfer runs.
type Snapshot struct {
	// Used is the byte count recorded in the usage record.
	Used int64
	// AllowedGrowth is the remaining capacity: Quota - Used, clamped
	// at zero when the area is already over quota.
	AllowedGrowth int64
}
