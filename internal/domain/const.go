package domain

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// Rent period constants. The rental contract bills in fixed 30-day cycles.
	FULL_PERIOD_DAYS = 30
	SECONDS_PER_DAY  = 24 * 60 * 60
	PERIOD_SECONDS   = FULL_PERIOD_DAYS * SECONDS_PER_DAY

	// RENT_SCALE_DECIMALS is the fixed scale factor between the base unit
	// (wei) and display units.
	RENT_SCALE_DECIMALS = 18
)
