package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "CRAFTKART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "CRAFTKART_DB_DSN"
	EnvDBHost = "CRAFTKART_DB_HOST"
	EnvDBUser = "CRAFTKART_DB_USER"
	EnvDBName = "CRAFTKART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
