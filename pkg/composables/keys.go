package composables

type contextKey string

const (
	txKey     contextKey = "tx"
	dbKey     contextKey = "db"
	loggerKey contextKey = "logger"
)
