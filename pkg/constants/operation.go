package constants

// Operation lifecycle operation name
type Operation string

const (
	OperationStart   Operation = "start"
	OperationStop    Operation = "stop"
	OperationRestart Operation = "restart"
	OperationStatus  Operation = "status"
)

func (o Operation) String() string {
	return string(o)
}

// Outcome of a lifecycle operation, used for the journal and metrics labels
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeNoop    Outcome = "noop"
	OutcomeFailure Outcome = "failure"
)

func (o Outcome) String() string {
	return string(o)
}

// Status store backends
const (
	StatusBackendFile  = "file"
	StatusBackendRedis = "redis"
	StatusBackendHTTP  = "http"
)

// Journal drivers
const (
	JournalDriverSQLite = "sqlite"
	JournalDriverMySQL  = "mysql"
)
