package metric

// SplitDim is the axis holding one value per cross-validation repetition.
const SplitDim = "split"

const (
	DefaultSplits     = 10
	DefaultTrainRatio = 0.9

	DefaultComparisonDim = "presentation"
	DefaultStratifyCoord = "object_name"
	DefaultIdentityCoord = "image_id"
	DefaultEntityDim     = "neuroid"
	DefaultEntityIDCoord = "neuroid_id"
)
