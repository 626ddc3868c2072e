// Package quota exposes storage areas with byte-capacity accounting for
// transfer sinks.
//
// # Storage Areas
//
// An [Area] is a named directory on a [billy.Filesystem] holding the files
// a quota applies to. Use [NewArea] with a validated [Config]:
//
//	area, err := quota.NewArea(osfs.New("/var/lib/app"), quota.Config{
//		Name:  "attachments",
//		Quota: 1 << 30,
//	})
//
// # Usage Records
//
// Each area carries a reserved file, [UsageRecordName], holding the number
// of bytes the area has already consumed as an ASCII decimal. The record is
// maintained by an external quota authority; this package only reads it.
// [Area.Prepare] turns the record into an immutable [Snapshot] whose
// AllowedGrowth is the area's remaining capacity. A missing or malformed
// record is an error, never treated as zero usage.
//
// # Sinks
//
// [Area.OpenFile] opens files inside the area for use as transfer sinks.
// Tests can swap in memfs.New() for a throwaway in-memory area.
package quota
