package validate

const (
	MinBatchSize int = 1
	MaxBatchSize int = 500

	MinCleanupDays int = 1
	MaxCleanupDays int = 365

	MaxErrorLimit int = 100

	MaxEnqueueItems int = 200
)

var AllowedOperations = map[string]bool{
	"INSERT": true,
	"UPDATE": true,
	"DELETE": true,
}
