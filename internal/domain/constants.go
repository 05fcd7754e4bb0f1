package domain

const (
	RoleAthlete = "ATHLETE"
	RoleCoach   = "COACH"
	RoleAdmin   = "ADMIN"
)

// Trust token lifecycle. PENDING is reserved in the schema but no
// transition ever assigns it; validation rejects it like any other
// non-ACTIVE status.
const (
	TokenStatusActive  = "ACTIVE"
	TokenStatusUsed    = "USED"
	TokenStatusExpired = "EXPIRED"
	TokenStatusRevoked = "REVOKED"
	TokenStatusPending = "PENDING"
)

const (
	PayoutStatusPending   = "PENDING"
	PayoutStatusCompleted = "COMPLETED"
	PayoutStatusFailed    = "FAILED"
)

// Audit ledger actions.
const (
	ActionTokenCreated          = "TOKEN_CREATED"
	ActionTokenUsed             = "TOKEN_USED"
	ActionTokenExpired          = "TOKEN_EXPIRED"
	ActionTokenRevoked          = "TOKEN_REVOKED"
	ActionTokenValidationFailed = "TOKEN_VALIDATION_FAILED"
	ActionTokenTampered         = "TOKEN_TAMPERED"
	ActionPayoutInitiated       = "PAYOUT_INITIATED"
	ActionPayoutCompleted       = "PAYOUT_COMPLETED"
	ActionBypassAttempt         = "BYPASS_ATTEMPT"
)

const (
	ActorSystem  = "system"
	ActorAthlete = "athlete"
	ActorCoach   = "coach"
	ActorAdmin   = "admin"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultBlocked = "blocked"
)

// GenesisHash is the previous_hash sentinel of the first ledger entry.
const GenesisHash = "genesis"

const (
	AlertSeverityLow      = "LOW"
	AlertSeverityMedium   = "MEDIUM"
	AlertSeverityHigh     = "HIGH"
	AlertSeverityCritical = "CRITICAL"
)

const (
	AlertTypeCoachMismatch    = "COACH_MISMATCH"
	AlertTypeCommissionBypass = "COMMISSION_BYPASS"
)
