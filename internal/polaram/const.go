package polaram

const (
	DefaultSamples       = 1_000_000 // samples per batch
	DefaultWorkers       = 2
	DefaultChunkSize     = 500
	DefaultPrecision     = 2 // decimal digits the depolarization ratios must agree on
	DefaultOutput        = "labratoryMuellerMatrix.txt"
	DefaultSimOutput     = "muellersimulation.txt"
	DefaultStore         = "polaram.db"
	DefaultLogLevel      = "info"
	UnitSampleHead       = "unit"
	EigenSymmetryTol     = 1e-12
	PolarizationTol      = 1e-9
	ProgressSteps        = 100 // ~1% progress granularity
	resultBufferPerChunk = 2
)
