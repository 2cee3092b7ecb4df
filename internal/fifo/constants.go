package fifo

const (
	minCapacityFrames = 256 // Smallest allocation in frames
	growthFactor      = 2   // Factor for buffer growth
)
