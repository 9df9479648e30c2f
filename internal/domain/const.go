package domain

const (
	// Relay signing domain
	RELAY_DOMAIN_NAME    = "HealthLedgerRelay"
	RELAY_DOMAIN_VERSION = "1"

	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"
)
