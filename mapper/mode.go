package mapper

// AccessMode selects the protection flags for a mapping.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	ReadWrite
	WriteOnly
)

// Hint mirrors the madvise-class access-pattern hints the Mapper passes
// through to the OS: Sequential for whole-level maps (MapWhole, used for
// decoding and downsampling) and retiling source stripes, Random around
// tile read-back, Normal (the default) when the caller has no particular
// pattern in mind. WillNotNeed maps to MADV_DONTNEED, but no caller in this
// module passes it: nothing is advised away after a downsampling pass.
type Hint int

const (
	HintNormal Hint = iota
	HintSequential
	HintRandom
	HintWillNotNeed
)
