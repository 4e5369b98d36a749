package config

const (
	// MaxTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxTitleLength = 255

	// MaxLabelLength is the maximum length for user version labels such as "v1.2".
	MaxLabelLength = 100

	// MaxChangeDescriptionLength is the maximum length for a change description.
	MaxChangeDescriptionLength = 2000

	// MaxBatchDeleteIDs caps the number of ids accepted by one batch delete request.
	MaxBatchDeleteIDs = 1000

	// MaxDiffInputBytes caps each side of an ad hoc diff request.
	MaxDiffInputBytes = 1 << 20

	// LogFilesToKeep is how many server log files SetupLogFile retains.
	LogFilesToKeep = 10
)
